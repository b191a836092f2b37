package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/nerolation/spamoor/client"
	"github.com/nerolation/spamoor/config"
	logging "github.com/nerolation/spamoor/log"
	"github.com/nerolation/spamoor/metrics"
	"github.com/nerolation/spamoor/pool"
	"github.com/nerolation/spamoor/spam"
	"github.com/nerolation/spamoor/txfactory"
	"github.com/nerolation/spamoor/types"
	"github.com/nerolation/spamoor/wallet"
)

func main() {
	app := &cli.App{
		Name:  "spamoor",
		Usage: "dispatch Ethereum transactions at controlled rates across wallets and RPC endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML run spec; flags are ignored when set"},
			&cli.StringFlag{Name: "keys", Aliases: []string{"k"}, Value: "pks.txt", Usage: "private keys file"},
			&cli.StringFlag{Name: "rpcs", Aliases: []string{"r"}, Value: "rpc.txt", Usage: "RPC endpoints file"},
			&cli.Int64Flag{Name: "chain-id", Aliases: []string{"c"}, Usage: "chain id (fetched from the first endpoint when 0)"},
			&cli.StringFlag{Name: "wallet-selection", Aliases: []string{"w"}, Value: "round-robin", Usage: "index|random|round-robin"},
			&cli.StringFlag{Name: "client-selection", Aliases: []string{"n"}, Value: "round-robin", Usage: "index|random|round-robin"},
			&cli.StringFlag{Name: "strategy-selection", Aliases: []string{"s"}, Value: "round-robin", Usage: "index|random|round-robin"},
			&cli.IntFlag{Name: "wallet-index", Usage: "explicit wallet index for index selection"},
			&cli.IntFlag{Name: "client-index", Usage: "explicit client index for index selection"},
			&cli.IntFlag{Name: "strategy-index", Usage: "explicit strategy index for index selection"},
			&cli.StringFlag{Name: "strategies", Value: "standard-tx,calldata-zeros", Usage: "comma-separated strategy list"},
			&cli.Uint64Flag{Name: "gas-limit", Usage: "target gas limit (block gas limit when 0)"},
			&cli.StringFlag{Name: "gas-price", Usage: "legacy gas price in wei (disables EIP-1559 fees)"},
			&cli.StringFlag{Name: "max-fee-per-gas", Value: "1000000000", Usage: "max fee per gas in wei"},
			&cli.StringFlag{Name: "max-priority-fee-per-gas", Value: "1000000000", Usage: "max priority fee per gas in wei"},
			&cli.StringFlag{Name: "max-fee-per-blob-gas", Value: "1000000000", Usage: "max fee per blob gas in wei"},
			&cli.StringFlag{Name: "to", Usage: "recipient address (self-transfer when empty)"},
			&cli.StringFlag{Name: "value", Usage: "value per transaction in wei"},
			&cli.DurationFlag{Name: "tx-delay", Value: time.Second, Usage: "delay between transactions per worker"},
			&cli.Uint64Flag{Name: "tx-count", Usage: "transactions to send (0 for unlimited)"},
			&cli.Float64Flag{Name: "rate", Usage: "max submits per second across workers (0 for unlimited)"},
			&cli.IntFlag{Name: "max-concurrent", Value: 1, Usage: "concurrent dispatch workers"},
			&cli.BoolFlag{Name: "await-receipt", Usage: "wait for each transaction's receipt"},
			&cli.DurationFlag{Name: "receipt-timeout", Value: 2 * time.Minute, Usage: "receipt wait ceiling"},
			&cli.BoolFlag{Name: "dry-run", Usage: "build and sign but do not submit"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
			&cli.BoolFlag{Name: "json-summary", Usage: "print a JSON run summary on completion"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	env := config.ParseEnv()
	logger := logging.DefaultLogger(c.Bool("verbose") || env.DevLogging)
	defer func() { _ = logger.Sync() }()

	spec, err := buildSpec(c)
	if err != nil {
		return pkgerrors.Wrap(err, "invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = config.WithEnv(ctx, env)
	ctx = logging.WithLogger(ctx, logger)

	keys, err := config.LoadPrivateKeys(spec.KeysFile)
	if err != nil {
		return pkgerrors.Wrap(err, "loading private keys")
	}
	endpoints, err := config.LoadRPCEndpoints(spec.RPCsFile)
	if err != nil {
		return pkgerrors.Wrap(err, "loading rpc endpoints")
	}
	logger.Info("loaded inputs",
		zap.Int("keys", len(keys)),
		zap.Int("endpoints", len(endpoints)),
	)

	clients := pool.New[spam.Client]()
	var first *client.Client
	for _, endpoint := range endpoints {
		cl, err := client.Dial(ctx, logger, client.Config{URL: endpoint})
		if err != nil {
			return pkgerrors.Wrapf(err, "dialing %s", endpoint)
		}
		if first == nil {
			first = cl
		}
		clients.Add(cl)
	}

	chainID := big.NewInt(spec.ChainID)
	if spec.ChainID == 0 {
		chainID, err = first.ChainID(ctx)
		if err != nil {
			return pkgerrors.Wrap(err, "detecting chain id")
		}
		logger.Info("detected chain id", zap.String("chain_id", chainID.String()))
	}

	wallets := pool.New[*wallet.Wallet]()
	for i, key := range keys {
		w, err := wallet.New(key, chainID)
		if err != nil {
			return pkgerrors.Wrapf(err, "loading key %d", i)
		}
		logger.Debug("loaded wallet", zap.Int("index", i), zap.String("address", w.FormattedAddress()))
		wallets.Add(w)
	}

	strategyList, err := types.ParseStrategies(spec.Strategies)
	if err != nil {
		return pkgerrors.Wrap(err, "parsing strategies")
	}
	strategies := pool.New(strategyList...)

	factoryOpts, err := factoryOptsFromSpec(spec)
	if err != nil {
		return pkgerrors.Wrap(err, "building factory options")
	}
	dispatchCfg, err := dispatchConfigFromSpec(spec)
	if err != nil {
		return pkgerrors.Wrap(err, "building dispatch config")
	}

	dispatcher := spam.New(
		logger,
		dispatchCfg,
		wallets,
		clients,
		strategies,
		txfactory.New(logger, factoryOpts),
		metrics.NewCollector(),
	)

	result, runErr := dispatcher.Run(ctx)
	if c.Bool("json-summary") {
		if out, jsonErr := result.JSON(); jsonErr == nil {
			fmt.Println(out)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		if spam.IsFatal(runErr) {
			return pkgerrors.Wrap(runErr, "dispatch aborted")
		}
		logger.Error("dispatch ended with error", zap.Error(runErr))
		return cli.Exit("", 1)
	}
	return nil
}

// buildSpec assembles the run spec from the YAML file or the flag surface.
func buildSpec(c *cli.Context) (*types.RunSpec, error) {
	if path := c.String("config"); path != "" {
		return config.LoadRunSpec(path)
	}

	spec := &types.RunSpec{
		KeysFile:             c.String("keys"),
		RPCsFile:             c.String("rpcs"),
		ChainID:              c.Int64("chain-id"),
		WalletSelection:      c.String("wallet-selection"),
		ClientSelection:      c.String("client-selection"),
		StrategySelection:    c.String("strategy-selection"),
		WalletIndex:          c.Int("wallet-index"),
		ClientIndex:          c.Int("client-index"),
		StrategyIndex:        c.Int("strategy-index"),
		Strategies:           c.String("strategies"),
		GasLimit:             c.Uint64("gas-limit"),
		GasPrice:             c.String("gas-price"),
		MaxFeePerGas:         c.String("max-fee-per-gas"),
		MaxPriorityFeePerGas: c.String("max-priority-fee-per-gas"),
		MaxFeePerBlobGas:     c.String("max-fee-per-blob-gas"),
		To:                   c.String("to"),
		Value:                c.String("value"),
		TxDelay:              c.Duration("tx-delay"),
		TxCount:              c.Uint64("tx-count"),
		Rate:                 c.Float64("rate"),
		MaxConcurrent:        c.Int("max-concurrent"),
		AwaitReceipt:         c.Bool("await-receipt"),
		ReceiptTimeout:       c.Duration("receipt-timeout"),
		DryRun:               c.Bool("dry-run"),
	}
	if c.IsSet("gas-price") {
		// legacy mode: drop the 1559 defaults so validation passes
		spec.MaxFeePerGas = ""
		spec.MaxPriorityFeePerGas = ""
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func factoryOptsFromSpec(spec *types.RunSpec) (txfactory.Opts, error) {
	opts := txfactory.Opts{
		GasLimit: spec.GasLimit,
	}
	if spec.To != "" {
		if !common.IsHexAddress(spec.To) {
			return txfactory.Opts{}, fmt.Errorf("%w: malformed recipient address %q", types.ErrInvalidParams, spec.To)
		}
		to := common.HexToAddress(spec.To)
		opts.Recipient = &to
	}
	for _, field := range []struct {
		raw  string
		dest **big.Int
	}{
		{spec.Value, &opts.Value},
		{spec.GasPrice, &opts.GasPrice},
		{spec.MaxFeePerGas, &opts.MaxFeePerGas},
		{spec.MaxPriorityFeePerGas, &opts.MaxPriorityFeePerGas},
		{spec.MaxFeePerBlobGas, &opts.MaxFeePerBlobGas},
	} {
		amount, err := types.ParseWei(field.raw)
		if err != nil {
			return txfactory.Opts{}, err
		}
		*field.dest = amount
	}
	return opts, nil
}

func dispatchConfigFromSpec(spec *types.RunSpec) (spam.Config, error) {
	walletMode, err := parseMode(spec.WalletSelection)
	if err != nil {
		return spam.Config{}, err
	}
	clientMode, err := parseMode(spec.ClientSelection)
	if err != nil {
		return spam.Config{}, err
	}
	strategyMode, err := parseMode(spec.StrategySelection)
	if err != nil {
		return spam.Config{}, err
	}

	return spam.Config{
		TxCount:        spec.TxCount,
		Delay:          spec.TxDelay,
		Workers:        spec.MaxConcurrent,
		Rate:           spec.Rate,
		DryRun:         spec.DryRun,
		AwaitReceipt:   spec.AwaitReceipt,
		ReceiptTimeout: spec.ReceiptTimeout,
		WalletMode:     walletMode,
		WalletIndex:    spec.WalletIndex,
		ClientMode:     clientMode,
		ClientIndex:    spec.ClientIndex,
		StrategyMode:   strategyMode,
		StrategyIndex:  spec.StrategyIndex,
	}, nil
}

func parseMode(s string) (types.SelectionMode, error) {
	if s == "" {
		return types.SelectRoundRobin, nil
	}
	return types.ParseSelectionMode(s)
}
