package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerolation/spamoor/types"
)

func TestLoadRunSpec(t *testing.T) {
	content := `name: devnet-spam
keys_file: pks.txt
rpcs_file: rpc.txt
chain_id: 1337
wallet_selection: round-robin
client_selection: random
strategy_selection: index
strategy_index: 1
strategies: standard-tx,calldata-zeros,blobs
tx_delay: 250ms
tx_count: 100
rate: 10
max_concurrent: 4
await_receipt: true
receipt_timeout: 1m
`
	path := writeFile(t, content)

	spec, err := LoadRunSpec(path)
	require.NoError(t, err)
	require.Equal(t, "devnet-spam", spec.Name)
	require.Equal(t, int64(1337), spec.ChainID)
	require.Equal(t, "random", spec.ClientSelection)
	require.Equal(t, 1, spec.StrategyIndex)
	require.Equal(t, 250*time.Millisecond, spec.TxDelay)
	require.Equal(t, uint64(100), spec.TxCount)
	require.Equal(t, 10.0, spec.Rate)
	require.Equal(t, time.Minute, spec.ReceiptTimeout)
	require.True(t, spec.AwaitReceipt)
}

func TestLoadRunSpecBigWeiAmounts(t *testing.T) {
	content := `keys_file: pks.txt
rpcs_file: rpc.txt
strategies: standard-tx
value: "20000000000000000000"
max_fee_per_gas: "3000000000"
`
	path := writeFile(t, content)

	spec, err := LoadRunSpec(path)
	require.NoError(t, err)
	require.Equal(t, "20000000000000000000", spec.Value)

	value, err := types.ParseWei(spec.Value)
	require.NoError(t, err)
	require.False(t, value.IsInt64(), "value must exceed int64 range")
}

func TestLoadRunSpecRejectsUnknownStrategy(t *testing.T) {
	path := writeFile(t, "keys_file: pks.txt\nrpcs_file: rpc.txt\nstrategies: teleport\n")

	_, err := LoadRunSpec(path)
	require.ErrorIs(t, err, types.ErrConfiguration)
}

func TestLoadRunSpecRejectsMalformedYAML(t *testing.T) {
	path := writeFile(t, "keys_file: [unclosed\n")

	_, err := LoadRunSpec(path)
	require.ErrorIs(t, err, types.ErrConfiguration)
}
