package wallet

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer handles key management and signing for Ethereum transactions
type Signer struct {
	privKey *ecdsa.PrivateKey
	chainID *big.Int
}

// NewSigner creates a new Ethereum signer with the given private key and chain ID
func NewSigner(privKey *ecdsa.PrivateKey, chainID *big.Int) *Signer {
	return &Signer{
		privKey: privKey,
		chainID: chainID,
	}
}

// Address returns the Ethereum address derived from the private key
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.privKey.PublicKey)
}

// FormattedAddress returns the hex-encoded Ethereum address with 0x prefix
func (s *Signer) FormattedAddress() string {
	return s.Address().Hex()
}

// ChainID returns the chain id transactions are signed for.
func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// SignTx signs a transaction of any supported type (legacy, access list,
// dynamic fee, blob) with the private key.
func (s *Signer) SignTx(tx *gethtypes.Transaction) (*gethtypes.Transaction, error) {
	signer := gethtypes.LatestSignerForChainID(s.chainID)
	return gethtypes.SignTx(tx, signer, s.privKey)
}

// PublicKey returns the public key
func (s *Signer) PublicKey() *ecdsa.PublicKey {
	return &s.privKey.PublicKey
}
