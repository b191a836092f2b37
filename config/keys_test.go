package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nerolation/spamoor/types"
)

const (
	keyA = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	keyB = "8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPrivateKeysLineFormat(t *testing.T) {
	path := writeFile(t, "# funded accounts\n0x"+keyA+"\n\n"+keyB+"\n")

	keys, err := LoadPrivateKeys(path)
	require.NoError(t, err)
	require.Equal(t, []string{keyA, keyB}, keys)
}

func TestLoadPrivateKeysJSONFormat(t *testing.T) {
	content := `prefunded accounts:
[
  {"private_key": "0x` + keyA + `", "address": "0x71562b71999873DB5b286dF957af199Ec94617F7"},
  {"private_key": "` + keyB + `"}
]
done.`
	path := writeFile(t, content)

	keys, err := LoadPrivateKeys(path)
	require.NoError(t, err)
	require.Equal(t, []string{keyA, keyB}, keys)
}

func TestLoadPrivateKeysSkipsMalformedLines(t *testing.T) {
	path := writeFile(t, "deadbeef\n"+keyA+"\nnot hex at all\n")

	keys, err := LoadPrivateKeys(path)
	require.NoError(t, err)
	require.Equal(t, []string{keyA}, keys)
}

func TestLoadPrivateKeysEmptyFile(t *testing.T) {
	path := writeFile(t, "# nothing here\n")

	_, err := LoadPrivateKeys(path)
	require.ErrorIs(t, err, types.ErrConfiguration)
}

func TestLoadPrivateKeysMissingFile(t *testing.T) {
	_, err := LoadPrivateKeys(filepath.Join(t.TempDir(), "absent.txt"))
	require.ErrorIs(t, err, types.ErrConfiguration)
}
