package txfactory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomBlobFieldElementsAreCanonical(t *testing.T) {
	blob, err := RandomBlob()
	require.NoError(t, err)

	// every 32-byte big-endian element must stay below the BLS12-381
	// modulus; masking the top byte to 0x3f guarantees that
	for i := 0; i < fieldElementsPerBlob; i++ {
		require.LessOrEqual(t, blob[i*bytesPerFieldElement], byte(0x3f), "element %d", i)
	}
}

func TestBuildBlobSidecar(t *testing.T) {
	sidecar, err := BuildBlobSidecar(2)
	require.NoError(t, err)
	require.Len(t, sidecar.Blobs, 2)
	require.Len(t, sidecar.Commitments, 2)
	require.Len(t, sidecar.Proofs, 2)
	require.Len(t, sidecar.BlobHashes(), 2)
}

func TestBuildBlobSidecarDefaultCount(t *testing.T) {
	sidecar, err := BuildBlobSidecar(0)
	require.NoError(t, err)
	require.Len(t, sidecar.Blobs, DefaultBlobCount)
}
