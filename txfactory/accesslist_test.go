package txfactory

import (
	"testing"

	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

func TestMaxAccessListKeysFloor(t *testing.T) {
	require.Equal(t, uint64(1), MaxAccessListKeys(0))
	require.Equal(t, uint64(1), MaxAccessListKeys(BaseTxGas))
	require.Equal(t, uint64(1), MaxAccessListKeys(BaseTxGas+params.TxAccessListAddressGas))
}

func TestMaxAccessListKeysFitsBudget(t *testing.T) {
	keys := MaxAccessListKeys(DefaultBlockGasLimit)
	require.Greater(t, keys, uint64(1))
	require.LessOrEqual(t, AccessListGas(keys), uint64(DefaultBlockGasLimit))
	require.Greater(t, AccessListGas(keys+1), uint64(DefaultBlockGasLimit))
}

func TestAccessListGas(t *testing.T) {
	want := uint64(BaseTxGas) + params.TxAccessListAddressGas + 3*params.TxAccessListStorageKeyGas
	require.Equal(t, want, AccessListGas(3))
}

func TestRandomAccessListShape(t *testing.T) {
	list := RandomAccessList(2, 5)
	require.Len(t, list, 2)
	for _, tuple := range list {
		require.Len(t, tuple.StorageKeys, 5)
	}
	require.NotEqual(t, list[0].Address, list[1].Address)
}
