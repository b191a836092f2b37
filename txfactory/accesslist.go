package txfactory

import (
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// MaxAccessListKeys returns how many storage keys of a single-address access
// list fit under gasLimit, with a floor of one so the list stays viable.
func MaxAccessListKeys(gasLimit uint64) uint64 {
	overhead := uint64(BaseTxGas) + params.TxAccessListAddressGas
	if gasLimit <= overhead {
		return 1
	}
	keys := (gasLimit - overhead) / params.TxAccessListStorageKeyGas
	if keys == 0 {
		return 1
	}
	return keys
}

// AccessListGas returns the intrinsic gas of a transfer carrying a
// single-address access list with the given key count.
func AccessListGas(keys uint64) uint64 {
	return BaseTxGas + params.TxAccessListAddressGas + keys*params.TxAccessListStorageKeyGas
}

// RandomAccessList generates count addresses each declaring keysPerAddress
// random storage keys.
func RandomAccessList(count, keysPerAddress uint64) gethtypes.AccessList {
	list := make(gethtypes.AccessList, 0, count)
	for range count {
		var addr common.Address
		fillRandom(addr[:])

		keys := make([]common.Hash, keysPerAddress)
		for i := range keys {
			fillRandom(keys[i][:])
		}
		list = append(list, gethtypes.AccessTuple{
			Address:     addr,
			StorageKeys: keys,
		})
	}
	return list
}

func fillRandom(b []byte) {
	for i := range b {
		b[i] = byte(rand.Intn(256))
	}
}
