package txfactory

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/nerolation/spamoor/types"
)

// defaultFeeWei is the fallback for unset 1559 fee caps and the blob fee cap.
var defaultFeeWei = big.NewInt(1_000_000_000) // 1 gwei

// ChainState is the chain view a strategy derives parameters from.
type ChainState interface {
	BlockGasLimit(ctx context.Context) (uint64, error)
	SupportsBlobs(ctx context.Context) (bool, error)
}

// Opts carries the operator-configured transaction parameters shared by all
// strategies.
type Opts struct {
	// Recipient overrides the default self-transfer target.
	Recipient *common.Address
	// Value is the wei amount attached to every transaction.
	Value *big.Int
	// GasLimit overrides the target gas limit derived from the chain.
	GasLimit uint64
	// GasPrice switches fee fields to legacy mode.
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerBlobGas     *big.Int
	// AccessList overrides the generated one for the access-list strategy.
	AccessList gethtypes.AccessList
	// BlobCount is the number of blobs per blob transaction.
	BlobCount int
}

// Factory derives transaction parameters from live chain state, one builder
// per strategy. Builders are pure given the chain view; the factory itself
// holds no per-transaction state.
type Factory struct {
	logger *zap.Logger
	opts   Opts
}

func New(logger *zap.Logger, opts Opts) *Factory {
	return &Factory{
		logger: logger.With(zap.String("module", "tx_factory")),
		opts:   opts,
	}
}

// Build derives the transaction parameters for one dispatch iteration.
func (f *Factory) Build(ctx context.Context, from common.Address, chain ChainState, strategy types.Strategy) (types.TxParams, error) {
	switch strategy {
	case types.StrategyStandardTx:
		return f.buildStandardTx(from), nil
	case types.StrategyCalldataZeros, types.StrategyCalldataNonZeros, types.StrategyCalldataMix:
		return f.buildCalldataTx(ctx, from, chain, strategy), nil
	case types.StrategyAccessList:
		return f.buildAccessListTx(ctx, from, chain), nil
	case types.StrategyBlobs:
		return f.buildBlobTx(ctx, from, chain)
	default:
		return types.TxParams{}, fmt.Errorf("%w: unknown strategy %q", types.ErrConfiguration, strategy)
	}
}

func (f *Factory) buildStandardTx(from common.Address) types.TxParams {
	gas := uint64(BaseTxGas)
	if f.opts.GasLimit > 0 {
		gas = f.opts.GasLimit
	}
	params := f.baseParams(from, types.StrategyStandardTx)
	params.Gas = gas
	return params
}

func (f *Factory) buildCalldataTx(ctx context.Context, from common.Address, chain ChainState, strategy types.Strategy) types.TxParams {
	target := f.targetGasLimit(ctx, chain)

	var data []byte
	switch strategy {
	case types.StrategyCalldataZeros:
		data = ZeroBytes(MaxZeroBytes(target))
	case types.StrategyCalldataNonZeros:
		data = NonZeroBytes(MaxNonZeroBytes(target))
	case types.StrategyCalldataMix:
		nonZeros, zeros := MaxMixBytes(target)
		data = MixedBytes(zeros, nonZeros)
	}

	params := f.baseParams(from, strategy)
	params.Gas = target
	params.Data = data
	return params
}

func (f *Factory) buildAccessListTx(ctx context.Context, from common.Address, chain ChainState) types.TxParams {
	params := f.baseParams(from, types.StrategyAccessList)

	list := f.opts.AccessList
	if len(list) == 0 {
		target := f.targetGasLimit(ctx, chain)
		list = RandomAccessList(1, MaxAccessListKeys(target))
	}

	keys := uint64(0)
	for _, tuple := range list {
		keys += uint64(len(tuple.StorageKeys))
	}
	params.Gas = AccessListGas(keys)
	params.AccessList = list
	return params
}

func (f *Factory) buildBlobTx(ctx context.Context, from common.Address, chain ChainState) (types.TxParams, error) {
	supported, err := chain.SupportsBlobs(ctx)
	if err != nil {
		return types.TxParams{}, err
	}
	if !supported {
		return types.TxParams{}, fmt.Errorf("%w: target chain has no blob schedule", types.ErrUnsupportedFeature)
	}

	sidecar, err := BuildBlobSidecar(f.opts.BlobCount)
	if err != nil {
		return types.TxParams{}, err
	}

	blobFee := f.opts.MaxFeePerBlobGas
	if blobFee == nil {
		blobFee = defaultFeeWei
	}
	blobFeeCap, overflow := uint256.FromBig(blobFee)
	if overflow {
		return types.TxParams{}, fmt.Errorf("%w: blob fee cap overflows uint256", types.ErrInvalidParams)
	}

	params := f.baseParams(from, types.StrategyBlobs)
	params.Gas = BaseTxGas
	params.BlobFeeCap = blobFeeCap
	params.Sidecar = sidecar
	params.BlobHashes = sidecar.BlobHashes()
	return params, nil
}

// baseParams fills the transfer and fee fields every strategy shares. The
// default recipient is the sender itself, so no strategy needs a funded
// counterparty.
func (f *Factory) baseParams(from common.Address, strategy types.Strategy) types.TxParams {
	to := from
	if f.opts.Recipient != nil {
		to = *f.opts.Recipient
	}

	params := types.TxParams{
		To:       &to,
		Value:    f.opts.Value,
		Strategy: strategy,
	}
	if f.opts.GasPrice != nil {
		params.GasPrice = f.opts.GasPrice
		return params
	}

	params.GasFeeCap = f.opts.MaxFeePerGas
	if params.GasFeeCap == nil {
		params.GasFeeCap = defaultFeeWei
	}
	params.GasTipCap = f.opts.MaxPriorityFeePerGas
	if params.GasTipCap == nil {
		params.GasTipCap = defaultFeeWei
	}
	return params
}

// targetGasLimit resolves the gas budget a maximal-calldata strategy fills:
// the configured override, else the client's block gas limit, else the
// conservative default. A zero or unavailable limit never aborts the build.
func (f *Factory) targetGasLimit(ctx context.Context, chain ChainState) uint64 {
	if f.opts.GasLimit > 0 {
		return f.opts.GasLimit
	}
	limit, err := chain.BlockGasLimit(ctx)
	if err != nil || limit == 0 {
		if err != nil {
			f.logger.Debug("falling back to default gas limit", zap.Error(err))
		}
		return DefaultBlockGasLimit
	}
	return limit
}
