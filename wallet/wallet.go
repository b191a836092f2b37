package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/nerolation/spamoor/types"
)

// NonceReader fetches the pending transaction count for an account. It is
// consulted exactly once per wallet to seed the local nonce counter.
type NonceReader interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// Wallet pairs a signing key with a local nonce counter. The counter is
// seeded from the chain on first use and only incremented locally after
// that; it is never reconciled with on-chain state, so transactions sent
// from the same key outside this process will desynchronize it.
type Wallet struct {
	signer *Signer

	mu     sync.Mutex
	nonce  uint64
	seeded bool
}

// New creates a wallet from a raw hex private key. The 0x prefix is optional.
func New(privKeyHex string, chainID *big.Int) (*Wallet, error) {
	privKeyHex = strings.TrimPrefix(strings.TrimSpace(privKeyHex), "0x")
	privKey, err := crypto.HexToECDSA(privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing private key: %v", types.ErrConfiguration, err)
	}
	return NewFromKey(privKey, chainID), nil
}

// NewFromKey creates a wallet from an already-parsed private key.
func NewFromKey(privKey *ecdsa.PrivateKey, chainID *big.Int) *Wallet {
	return &Wallet{signer: NewSigner(privKey, chainID)}
}

// Address returns the Ethereum address derived from the signing key.
func (w *Wallet) Address() common.Address {
	return w.signer.Address()
}

// FormattedAddress returns the hex-encoded Ethereum address
func (w *Wallet) FormattedAddress() string {
	return w.signer.FormattedAddress()
}

// ChainID returns the chain id this wallet signs for.
func (w *Wallet) ChainID() *big.Int {
	return w.signer.ChainID()
}

// NextNonce returns the current nonce counter and increments it. The first
// call seeds the counter from the chain via r; subsequent calls trust the
// local bookkeeping so in-flight unconfirmed transactions never race a
// re-fetch. Allocation is atomic: concurrent callers each observe a unique
// nonce.
func (w *Wallet) NextNonce(ctx context.Context, r NonceReader) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.seeded {
		onChain, err := r.PendingNonceAt(ctx, w.signer.Address())
		if err != nil {
			return 0, fmt.Errorf("%w: fetching nonce for %s: %v", types.ErrConnection, w.FormattedAddress(), err)
		}
		w.nonce = onChain
		w.seeded = true
	}

	n := w.nonce
	w.nonce++
	return n, nil
}

// ResetNonce drops the local counter so the next allocation re-seeds from
// the chain. The dispatcher never calls this; it exists for callers that
// know the local view has desynchronized.
func (w *Wallet) ResetNonce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seeded = false
}

// BuildTx assembles an unsigned transaction from params, allocating the next
// nonce unless params carries an override. The narrowest go-ethereum
// transaction type that fits the populated fields is chosen.
func (w *Wallet) BuildTx(ctx context.Context, r NonceReader, params types.TxParams) (*gethtypes.Transaction, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	nonce := uint64(0)
	if params.Nonce != nil {
		nonce = *params.Nonce
	} else {
		var err error
		nonce, err = w.NextNonce(ctx, r)
		if err != nil {
			return nil, err
		}
	}

	value := params.Value
	if value == nil {
		value = new(big.Int)
	}

	if params.Sidecar != nil {
		return w.buildBlobTx(params, nonce, value)
	}

	if params.GasPrice != nil {
		if len(params.AccessList) > 0 {
			return gethtypes.NewTx(&gethtypes.AccessListTx{
				ChainID:    w.signer.ChainID(),
				Nonce:      nonce,
				GasPrice:   params.GasPrice,
				Gas:        params.Gas,
				To:         params.To,
				Value:      value,
				Data:       params.Data,
				AccessList: params.AccessList,
			}), nil
		}
		return gethtypes.NewTx(&gethtypes.LegacyTx{
			Nonce:    nonce,
			GasPrice: params.GasPrice,
			Gas:      params.Gas,
			To:       params.To,
			Value:    value,
			Data:     params.Data,
		}), nil
	}

	return gethtypes.NewTx(&gethtypes.DynamicFeeTx{
		ChainID:    w.signer.ChainID(),
		Nonce:      nonce,
		GasTipCap:  params.GasTipCap,
		GasFeeCap:  params.GasFeeCap,
		Gas:        params.Gas,
		To:         params.To,
		Value:      value,
		Data:       params.Data,
		AccessList: params.AccessList,
	}), nil
}

func (w *Wallet) buildBlobTx(params types.TxParams, nonce uint64, value *big.Int) (*gethtypes.Transaction, error) {
	if params.To == nil {
		return nil, fmt.Errorf("%w: blob transactions require a recipient", types.ErrInvalidParams)
	}
	if params.GasPrice != nil {
		return nil, fmt.Errorf("%w: blob transactions require EIP-1559 fee caps", types.ErrInvalidParams)
	}

	chainID, overflow := uint256.FromBig(w.signer.ChainID())
	if overflow {
		return nil, fmt.Errorf("%w: chain id overflows uint256", types.ErrInvalidParams)
	}
	tipCap, feeCap, err := blobFeeCaps(params)
	if err != nil {
		return nil, err
	}
	valueU, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("%w: value overflows uint256", types.ErrInvalidParams)
	}

	hashes := params.BlobHashes
	if len(hashes) == 0 {
		hashes = params.Sidecar.BlobHashes()
	}

	return gethtypes.NewTx(&gethtypes.BlobTx{
		ChainID:    chainID,
		Nonce:      nonce,
		GasTipCap:  tipCap,
		GasFeeCap:  feeCap,
		Gas:        params.Gas,
		To:         *params.To,
		Value:      valueU,
		Data:       params.Data,
		AccessList: params.AccessList,
		BlobFeeCap: params.BlobFeeCap,
		BlobHashes: hashes,
		Sidecar:    params.Sidecar,
	}), nil
}

func blobFeeCaps(params types.TxParams) (tipCap, feeCap *uint256.Int, err error) {
	var overflow bool
	tipCap, overflow = uint256.FromBig(params.GasTipCap)
	if overflow {
		return nil, nil, fmt.Errorf("%w: tip cap overflows uint256", types.ErrInvalidParams)
	}
	feeCap, overflow = uint256.FromBig(params.GasFeeCap)
	if overflow {
		return nil, nil, fmt.Errorf("%w: fee cap overflows uint256", types.ErrInvalidParams)
	}
	return tipCap, feeCap, nil
}

// SignTx produces the signed transaction for a previously built payload.
func (w *Wallet) SignTx(tx *gethtypes.Transaction) (*gethtypes.Transaction, error) {
	signed, err := w.signer.SignTx(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrSigning, w.FormattedAddress(), err)
	}
	return signed, nil
}

// CreateSignedTx builds and signs in one call.
func (w *Wallet) CreateSignedTx(ctx context.Context, r NonceReader, params types.TxParams) (*gethtypes.Transaction, error) {
	tx, err := w.BuildTx(ctx, r, params)
	if err != nil {
		return nil, err
	}
	return w.SignTx(tx)
}

func validateParams(params types.TxParams) error {
	if params.GasPrice != nil && (params.GasFeeCap != nil || params.GasTipCap != nil) {
		return fmt.Errorf("%w: legacy gas price combined with EIP-1559 fee caps", types.ErrInvalidParams)
	}
	if params.GasPrice == nil && (params.GasFeeCap == nil || params.GasTipCap == nil) {
		return fmt.Errorf("%w: missing fee fields", types.ErrInvalidParams)
	}
	return nil
}
