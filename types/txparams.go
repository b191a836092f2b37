package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// TxParams is the union of legacy, EIP-1559, EIP-2930 and EIP-4844
// transaction fields. A strategy populates only the fields it needs; the
// wallet assembles the narrowest go-ethereum transaction type that carries
// the populated fields.
type TxParams struct {
	To    *common.Address
	Value *big.Int
	Data  []byte
	Gas   uint64

	// GasPrice selects a legacy transaction and is mutually exclusive with
	// the EIP-1559 fee caps below.
	GasPrice  *big.Int
	GasFeeCap *big.Int
	GasTipCap *big.Int

	AccessList gethtypes.AccessList

	// BlobFeeCap plus a sidecar select an EIP-4844 blob transaction.
	BlobFeeCap *uint256.Int
	BlobHashes []common.Hash
	Sidecar    *gethtypes.BlobTxSidecar

	// Nonce overrides the wallet's local nonce allocation when set.
	Nonce *uint64

	// Strategy records which builder produced these params, for reporting.
	Strategy Strategy
}
