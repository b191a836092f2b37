package spam

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nerolation/spamoor/metrics"
	"github.com/nerolation/spamoor/pool"
	"github.com/nerolation/spamoor/ratelimit"
	"github.com/nerolation/spamoor/txfactory"
	"github.com/nerolation/spamoor/types"
	"github.com/nerolation/spamoor/wallet"
)

// Client is the endpoint surface the dispatcher drives. *client.Client
// satisfies it; tests substitute fakes.
type Client interface {
	wallet.NonceReader
	txfactory.ChainState
	Name() string
	SendTx(ctx context.Context, tx *gethtypes.Transaction) (common.Hash, error)
	WaitForReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*gethtypes.Receipt, error)
}

// Config drives one dispatch run.
type Config struct {
	// TxCount is how many transactions the run must deliver: submitted in a
	// live run, built and signed in a dry run. Failed iterations do not
	// consume the budget. Zero means unbounded: the run only stops on
	// context cancellation.
	TxCount uint64
	// Delay is the sleep between iterations of one worker.
	Delay time.Duration
	// Workers bounds concurrent dispatch loops sharing the pools.
	Workers int
	// Rate caps submits per second across all workers. Zero means
	// unlimited. RateFn, when set, is evaluated before every submit and
	// takes precedence.
	Rate   float64
	RateFn ratelimit.RateFunc

	DryRun         bool
	AwaitReceipt   bool
	ReceiptTimeout time.Duration

	WalletMode    types.SelectionMode
	WalletIndex   int
	ClientMode    types.SelectionMode
	ClientIndex   int
	StrategyMode  types.SelectionMode
	StrategyIndex int
}

// Dispatcher runs the select → build → sign → submit loop over the shared
// wallet, client and strategy pools.
type Dispatcher struct {
	logger  *zap.Logger
	cfg     Config
	wallets *pool.Pool[*wallet.Wallet]
	clients *pool.Pool[Client]
	strats  *pool.Pool[types.Strategy]
	factory *txfactory.Factory
	limiter *ratelimit.Limiter
	coll    *metrics.Collector

	tickets atomic.Uint64
	built   atomic.Uint64
	sent    atomic.Uint64
	failed  atomic.Uint64

	mu          sync.Mutex
	perStrategy map[types.Strategy]uint64
}

func New(
	logger *zap.Logger,
	cfg Config,
	wallets *pool.Pool[*wallet.Wallet],
	clients *pool.Pool[Client],
	strategies *pool.Pool[types.Strategy],
	factory *txfactory.Factory,
	coll *metrics.Collector,
) *Dispatcher {
	if coll == nil {
		coll = metrics.NewCollector()
	}
	return &Dispatcher{
		logger:      logger.With(zap.String("module", "dispatcher")),
		cfg:         cfg,
		wallets:     wallets,
		clients:     clients,
		strats:      strategies,
		factory:     factory,
		limiter:     ratelimit.New(),
		coll:        coll,
		perStrategy: make(map[types.Strategy]uint64),
	}
}

// Run drives the dispatch loop until the configured count is reached or ctx
// is cancelled. The returned Result is valid even when err is non-nil.
func (d *Dispatcher) Run(ctx context.Context) (Result, error) {
	workers := d.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	d.logger.Info("starting dispatch",
		zap.Int("workers", workers),
		zap.Uint64("tx_count", d.cfg.TxCount),
		zap.Int("wallets", d.wallets.Len()),
		zap.Int("clients", d.clients.Len()),
		zap.Int("strategies", d.strats.Len()),
		zap.Bool("dry_run", d.cfg.DryRun),
	)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return d.workerLoop(ctx)
		})
	}
	err := g.Wait()

	result := d.result(start)
	d.logger.Info("dispatch finished",
		zap.Uint64("built", result.Built),
		zap.Uint64("sent", result.Sent),
		zap.Uint64("failed", result.Failed),
		zap.Float64("duration_seconds", result.DurationSeconds),
	)
	return result, err
}

func (d *Dispatcher) workerLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ticket := d.tickets.Add(1)
		if d.cfg.TxCount > 0 && ticket > d.cfg.TxCount {
			return nil
		}

		ok, err := d.iterate(ctx, ticket)
		if err != nil {
			return err
		}
		if !ok {
			// hand the budget slot back so TxCount counts delivered
			// transactions, not attempts
			d.tickets.Add(^uint64(0))
		}

		if d.cfg.Delay > 0 {
			timer := time.NewTimer(d.cfg.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// iterate performs one SELECT → BUILD → SIGN → SUBMIT → AWAIT_RECEIPT cycle
// and reports whether the iteration completed. Pool errors and context
// cancellation are fatal; everything else is logged, counted as a failure and
// the run continues. The wallet's nonce is never rolled back after a failed
// submit, so the next iteration uses a fresh one.
func (d *Dispatcher) iterate(ctx context.Context, seq uint64) (bool, error) {
	w, err := d.wallets.Next(d.cfg.WalletMode, d.cfg.WalletIndex)
	if err != nil {
		return false, err
	}
	c, err := d.clients.Next(d.cfg.ClientMode, d.cfg.ClientIndex)
	if err != nil {
		return false, err
	}
	strategy, err := d.strats.Next(d.cfg.StrategyMode, d.cfg.StrategyIndex)
	if err != nil {
		return false, err
	}

	logger := d.logger.With(
		zap.Uint64("seq", seq),
		zap.String("wallet", w.FormattedAddress()),
		zap.String("client", c.Name()),
		zap.String("strategy", strategy.String()),
	)

	params, err := d.factory.Build(ctx, w.Address(), c, strategy)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		logger.Error("failed to build transaction params", zap.Error(err))
		d.recordFailure(strategy)
		return false, nil
	}

	signed, err := w.CreateSignedTx(ctx, c, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		logger.Error("failed to sign transaction", zap.Error(err))
		d.recordFailure(strategy)
		return false, nil
	}

	d.built.Add(1)
	d.coll.TxBuilt(strategy.String())

	if d.cfg.DryRun {
		logger.Info("built transaction (dry run)",
			zap.String("tx_hash", signed.Hash().Hex()),
			zap.Uint64("nonce", signed.Nonce()),
			zap.Uint64("gas", signed.Gas()),
			zap.Uint64("size_bytes", signed.Size()),
		)
		d.recordSuccess(strategy)
		return true, nil
	}

	if err := d.limiter.Acquire(ctx, d.effectiveRate()); err != nil {
		return false, err
	}

	submitStart := time.Now()
	hash, err := c.SendTx(ctx, signed)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		logger.Error("failed to send transaction",
			zap.Uint64("nonce", signed.Nonce()),
			zap.Error(err),
		)
		d.recordFailure(strategy)
		return false, nil
	}

	d.sent.Add(1)
	d.coll.TxSent(strategy.String(), time.Since(submitStart))
	d.recordSuccess(strategy)
	logger.Info("transaction sent",
		zap.String("tx_hash", hash.Hex()),
		zap.Uint64("nonce", signed.Nonce()),
	)

	if d.cfg.AwaitReceipt {
		receipt, err := c.WaitForReceipt(ctx, hash, d.cfg.ReceiptTimeout)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			logger.Warn("no receipt", zap.Error(err))
			return true, nil
		}
		logger.Info("transaction mined",
			zap.String("tx_hash", hash.Hex()),
			zap.Uint64("block", receipt.BlockNumber.Uint64()),
			zap.Bool("success", receipt.Status == gethtypes.ReceiptStatusSuccessful),
		)
	}
	return true, nil
}

func (d *Dispatcher) effectiveRate() float64 {
	if d.cfg.RateFn != nil {
		return d.cfg.RateFn()
	}
	return d.cfg.Rate
}

func (d *Dispatcher) recordSuccess(strategy types.Strategy) {
	d.mu.Lock()
	d.perStrategy[strategy]++
	d.mu.Unlock()
}

func (d *Dispatcher) recordFailure(strategy types.Strategy) {
	d.failed.Add(1)
	d.coll.TxFailed(strategy.String())
}

func (d *Dispatcher) result(start time.Time) Result {
	d.mu.Lock()
	perStrategy := make(map[string]uint64, len(d.perStrategy))
	for s, n := range d.perStrategy {
		perStrategy[s.String()] = n
	}
	d.mu.Unlock()

	return Result{
		Built:           d.built.Load(),
		Sent:            d.sent.Load(),
		Failed:          d.failed.Load(),
		PerStrategy:     perStrategy,
		DurationSeconds: time.Since(start).Seconds(),
		DryRun:          d.cfg.DryRun,
	}
}

// IsFatal reports whether an error aborts the whole run rather than a single
// iteration.
func IsFatal(err error) bool {
	return errors.Is(err, types.ErrEmptyPool) ||
		errors.Is(err, types.ErrOutOfRange) ||
		errors.Is(err, types.ErrConfiguration)
}
