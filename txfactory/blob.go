package txfactory

import (
	crand "crypto/rand"
	"fmt"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
)

const (
	bytesPerFieldElement = 32
	fieldElementsPerBlob = 4096

	// DefaultBlobCount is how many blobs the blob strategy attaches when not
	// configured otherwise.
	DefaultBlobCount = 6
)

// RandomBlob fills one EIP-4844 blob with random field elements. The top
// bits of every 32-byte element are masked so each value stays below the
// BLS12-381 field modulus (0x73ed…0001).
func RandomBlob() (kzg4844.Blob, error) {
	var blob kzg4844.Blob
	if _, err := crand.Read(blob[:]); err != nil {
		return kzg4844.Blob{}, fmt.Errorf("generating blob randomness: %w", err)
	}
	for i := 0; i < fieldElementsPerBlob; i++ {
		blob[i*bytesPerFieldElement] &= 0x3f
	}
	return blob, nil
}

// BuildBlobSidecar generates count random blobs with their KZG commitments
// and proofs.
func BuildBlobSidecar(count int) (*gethtypes.BlobTxSidecar, error) {
	if count <= 0 {
		count = DefaultBlobCount
	}

	sidecar := &gethtypes.BlobTxSidecar{
		Blobs:       make([]kzg4844.Blob, 0, count),
		Commitments: make([]kzg4844.Commitment, 0, count),
		Proofs:      make([]kzg4844.Proof, 0, count),
	}
	for i := 0; i < count; i++ {
		blob, err := RandomBlob()
		if err != nil {
			return nil, err
		}
		commitment, err := kzg4844.BlobToCommitment(&blob)
		if err != nil {
			return nil, fmt.Errorf("computing blob commitment: %w", err)
		}
		proof, err := kzg4844.ComputeBlobProof(&blob, commitment)
		if err != nil {
			return nil, fmt.Errorf("computing blob proof: %w", err)
		}
		sidecar.Blobs = append(sidecar.Blobs, blob)
		sidecar.Commitments = append(sidecar.Commitments, commitment)
		sidecar.Proofs = append(sidecar.Proofs, proof)
	}
	return sidecar, nil
}
