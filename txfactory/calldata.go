package txfactory

import (
	"math/rand"
)

// Calldata gas accounting. Zero bytes are cheaper than non-zero bytes, so
// the maximal payload that fits under a block gas limit depends on the byte
// mix.
const (
	// BaseTxGas is the intrinsic cost of a transaction.
	BaseTxGas = 21_000

	// GasPerZeroByte and GasPerNonZeroByte price one calldata byte.
	GasPerZeroByte    = 10
	GasPerNonZeroByte = 40

	// DefaultBlockGasLimit is the conservative fallback used when the block
	// gas limit is zero or unavailable.
	DefaultBlockGasLimit = 30_000_000

	// mixNonZeroGasShare is the percentage of available gas spent on
	// non-zero bytes in the mixed strategy.
	mixNonZeroGasShare = 71
)

// MaxZeroBytes returns the number of zero calldata bytes that fit under
// gasLimit, clamped at zero.
func MaxZeroBytes(gasLimit uint64) uint64 {
	if gasLimit <= BaseTxGas {
		return 0
	}
	return (gasLimit - BaseTxGas) / GasPerZeroByte
}

// MaxNonZeroBytes returns the number of non-zero calldata bytes that fit
// under gasLimit, clamped at zero.
func MaxNonZeroBytes(gasLimit uint64) uint64 {
	if gasLimit <= BaseTxGas {
		return 0
	}
	return (gasLimit - BaseTxGas) / GasPerNonZeroByte
}

// MaxMixBytes splits the available gas between non-zero and zero bytes and
// returns how many of each fit under gasLimit.
func MaxMixBytes(gasLimit uint64) (nonZeros, zeros uint64) {
	if gasLimit <= BaseTxGas {
		return 0, 0
	}
	available := gasLimit - BaseTxGas
	nonZeroGas := available * mixNonZeroGasShare / 100
	zeroGas := available - nonZeroGas
	return nonZeroGas / GasPerNonZeroByte, zeroGas / GasPerZeroByte
}

// ZeroBytes returns n zero bytes.
func ZeroBytes(n uint64) []byte {
	return make([]byte, n)
}

// NonZeroBytes returns n pseudo-random bytes drawn from [1, 255].
func NonZeroBytes(n uint64) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(1 + rand.Intn(255))
	}
	return out
}

// MixedBytes returns zeros zero bytes and nonZeros non-zero bytes,
// interleaved by a random shuffle.
func MixedBytes(zeros, nonZeros uint64) []byte {
	out := make([]byte, 0, zeros+nonZeros)
	out = append(out, ZeroBytes(zeros)...)
	out = append(out, NonZeroBytes(nonZeros)...)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
