package spam

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nerolation/spamoor/pool"
	"github.com/nerolation/spamoor/txfactory"
	"github.com/nerolation/spamoor/types"
	"github.com/nerolation/spamoor/wallet"
)

const (
	keyA = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	keyB = "8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a"
)

// fakeClient is an in-memory endpoint recording every submitted transaction.
type fakeClient struct {
	name string

	mu       sync.Mutex
	received []*gethtypes.Transaction
	sendErrs []error // consumed one per SendTx call, nil entries succeed
	receipt  *gethtypes.Receipt
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	return 0, nil
}

func (f *fakeClient) BlockGasLimit(_ context.Context) (uint64, error) {
	return 30_000_000, nil
}

func (f *fakeClient) SupportsBlobs(_ context.Context) (bool, error) {
	return false, nil
}

func (f *fakeClient) SendTx(_ context.Context, tx *gethtypes.Transaction) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return common.Hash{}, err
		}
	}
	f.received = append(f.received, tx)
	return tx.Hash(), nil
}

func (f *fakeClient) WaitForReceipt(_ context.Context, _ common.Hash, _ time.Duration) (*gethtypes.Receipt, error) {
	if f.receipt == nil {
		return nil, types.ErrReceiptTimeout
	}
	return f.receipt, nil
}

func (f *fakeClient) txs() []*gethtypes.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*gethtypes.Transaction(nil), f.received...)
}

func testWallets(t *testing.T, keys ...string) []*wallet.Wallet {
	t.Helper()
	wallets := make([]*wallet.Wallet, 0, len(keys))
	for _, key := range keys {
		w, err := wallet.New(key, big.NewInt(1337))
		require.NoError(t, err)
		wallets = append(wallets, w)
	}
	return wallets
}

func newTestDispatcher(t *testing.T, cfg Config, wallets []*wallet.Wallet, clients []Client, strategies ...types.Strategy) *Dispatcher {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return New(
		logger,
		cfg,
		pool.New(wallets...),
		pool.New(clients...),
		pool.New(strategies...),
		txfactory.New(logger, txfactory.Opts{}),
		nil,
	)
}

func TestRunRoundRobinAlternation(t *testing.T) {
	wallets := testWallets(t, keyA, keyB)
	c0 := &fakeClient{name: "c0"}
	c1 := &fakeClient{name: "c1"}

	d := newTestDispatcher(t, Config{
		TxCount:      4,
		Workers:      1,
		WalletMode:   types.SelectRoundRobin,
		ClientMode:   types.SelectRoundRobin,
		StrategyMode: types.SelectByIndex,
	}, wallets, []Client{c0, c1}, types.StrategyStandardTx)

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(4), result.Built)
	require.Equal(t, uint64(4), result.Sent)
	require.Zero(t, result.Failed)
	require.Equal(t, uint64(4), result.PerStrategy[types.StrategyStandardTx.String()])

	// one worker, two clients: strict alternation
	require.Len(t, c0.txs(), 2)
	require.Len(t, c1.txs(), 2)

	// standard transactions are self-transfers, so the recipient identifies
	// the sending wallet; the wallet pool alternates in step with the clients
	require.Equal(t, wallets[0].Address(), *c0.txs()[0].To())
	require.Equal(t, wallets[1].Address(), *c1.txs()[0].To())
	require.Equal(t, wallets[0].Address(), *c0.txs()[1].To())
	require.Equal(t, wallets[1].Address(), *c1.txs()[1].To())

	// each wallet allocated its own nonces 0 and 1
	for _, c := range []*fakeClient{c0, c1} {
		require.Equal(t, uint64(0), c.txs()[0].Nonce())
		require.Equal(t, uint64(1), c.txs()[1].Nonce())
	}
}

func TestRunDryRunSubmitsNothing(t *testing.T) {
	wallets := testWallets(t, keyA)
	c := &fakeClient{name: "c0"}

	d := newTestDispatcher(t, Config{
		TxCount:      3,
		Workers:      1,
		DryRun:       true,
		WalletMode:   types.SelectRoundRobin,
		ClientMode:   types.SelectRoundRobin,
		StrategyMode: types.SelectRoundRobin,
	}, wallets, []Client{c}, types.StrategyStandardTx, types.StrategyCalldataZeros)

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(3), result.Built)
	require.Zero(t, result.Sent)
	require.True(t, result.DryRun)
	require.Empty(t, c.txs())

	// per-strategy counts track completed iterations, built ones here
	total := uint64(0)
	for _, n := range result.PerStrategy {
		total += n
	}
	require.Equal(t, uint64(3), total)
}

func TestRunDeliversCountDespiteSubmitFailure(t *testing.T) {
	wallets := testWallets(t, keyA)
	c := &fakeClient{
		name:     "c0",
		sendErrs: []error{errors.New("txpool full"), nil},
	}

	d := newTestDispatcher(t, Config{
		TxCount:      3,
		Workers:      1,
		WalletMode:   types.SelectRoundRobin,
		ClientMode:   types.SelectRoundRobin,
		StrategyMode: types.SelectRoundRobin,
	}, wallets, []Client{c}, types.StrategyStandardTx)

	result, err := d.Run(context.Background())
	require.NoError(t, err)

	// the failed attempt does not consume the budget: the run keeps going
	// until three transactions were actually accepted
	require.Equal(t, uint64(3), result.Sent)
	require.Equal(t, uint64(1), result.Failed)
	require.Equal(t, uint64(4), result.Built)

	// the failed submit burned nonce 0; the survivors carry 1, 2, 3
	require.Len(t, c.txs(), 3)
	for i, tx := range c.txs() {
		require.Equal(t, uint64(i+1), tx.Nonce())
	}
}

func TestRunRetriesFailedBuilds(t *testing.T) {
	wallets := testWallets(t, keyA)
	c := &fakeClient{name: "c0"} // SupportsBlobs is false

	d := newTestDispatcher(t, Config{
		TxCount:      2,
		Workers:      1,
		WalletMode:   types.SelectRoundRobin,
		ClientMode:   types.SelectRoundRobin,
		StrategyMode: types.SelectRoundRobin,
	}, wallets, []Client{c}, types.StrategyBlobs, types.StrategyStandardTx)

	// the blob builds fail on this chain and hand their slot back; the
	// standard builds on the alternating draws fill the count
	result, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(2), result.Sent)
	require.Equal(t, uint64(2), result.Failed)
	require.Len(t, c.txs(), 2)
}

func TestRunEmptyWalletPoolIsFatal(t *testing.T) {
	c := &fakeClient{name: "c0"}

	d := newTestDispatcher(t, Config{
		TxCount:      1,
		Workers:      1,
		WalletMode:   types.SelectRoundRobin,
		ClientMode:   types.SelectRoundRobin,
		StrategyMode: types.SelectRoundRobin,
	}, nil, []Client{c}, types.StrategyStandardTx)

	_, err := d.Run(context.Background())
	require.ErrorIs(t, err, types.ErrEmptyPool)
	require.True(t, IsFatal(err))
}

func TestRunAwaitReceipt(t *testing.T) {
	wallets := testWallets(t, keyA)
	c := &fakeClient{
		name: "c0",
		receipt: &gethtypes.Receipt{
			Status:      gethtypes.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(5),
		},
	}

	d := newTestDispatcher(t, Config{
		TxCount:      1,
		Workers:      1,
		AwaitReceipt: true,
		WalletMode:   types.SelectRoundRobin,
		ClientMode:   types.SelectRoundRobin,
		StrategyMode: types.SelectRoundRobin,
	}, wallets, []Client{c}, types.StrategyStandardTx)

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Sent)
}

func TestRunStopsOnCancel(t *testing.T) {
	wallets := testWallets(t, keyA)
	c := &fakeClient{name: "c0"}

	ctx, cancel := context.WithCancel(context.Background())

	d := newTestDispatcher(t, Config{
		TxCount:      0, // unbounded
		Delay:        10 * time.Millisecond,
		Workers:      2,
		WalletMode:   types.SelectRoundRobin,
		ClientMode:   types.SelectRoundRobin,
		StrategyMode: types.SelectRoundRobin,
	}, wallets, []Client{c}, types.StrategyStandardTx)

	done := make(chan struct{})
	var result Result
	var runErr error
	go func() {
		defer close(done)
		result, runErr = d.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop on cancel")
	}
	require.ErrorIs(t, runErr, context.Canceled)
	require.NotZero(t, result.Built)
}

func TestRunConcurrentWorkersRespectCount(t *testing.T) {
	wallets := testWallets(t, keyA, keyB)
	c := &fakeClient{name: "c0"}

	d := newTestDispatcher(t, Config{
		TxCount:      20,
		Workers:      4,
		WalletMode:   types.SelectRoundRobin,
		ClientMode:   types.SelectRoundRobin,
		StrategyMode: types.SelectRoundRobin,
	}, wallets, []Client{c}, types.StrategyStandardTx)

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(20), result.Sent)
	require.Len(t, c.txs(), 20)
}

func TestRunRateFnOverridesRate(t *testing.T) {
	wallets := testWallets(t, keyA)
	c := &fakeClient{name: "c0"}

	calls := 0
	d := newTestDispatcher(t, Config{
		TxCount: 3,
		Workers: 1,
		Rate:    0.01, // would stall for minutes if used
		RateFn: func() float64 {
			calls++
			return 0
		},
		WalletMode:   types.SelectRoundRobin,
		ClientMode:   types.SelectRoundRobin,
		StrategyMode: types.SelectRoundRobin,
	}, wallets, []Client{c}, types.StrategyStandardTx)

	result, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(3), result.Sent)
	require.Equal(t, 3, calls)
}

func TestIsFatal(t *testing.T) {
	require.True(t, IsFatal(types.ErrEmptyPool))
	require.True(t, IsFatal(types.ErrOutOfRange))
	require.True(t, IsFatal(types.ErrConfiguration))
	require.False(t, IsFatal(types.ErrSubmission))
	require.False(t, IsFatal(errors.New("transient")))
}
