package types

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// RunSpec is the YAML representation of a dispatch run. It mirrors the CLI
// surface so runs can be described in a file instead of flags.
type RunSpec struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	KeysFile string `yaml:"keys_file" json:"keys_file"`
	RPCsFile string `yaml:"rpcs_file" json:"rpcs_file"`
	ChainID  int64  `yaml:"chain_id,omitempty" json:"chain_id,omitempty"`

	WalletSelection   string `yaml:"wallet_selection" json:"wallet_selection"`
	ClientSelection   string `yaml:"client_selection" json:"client_selection"`
	StrategySelection string `yaml:"strategy_selection" json:"strategy_selection"`
	WalletIndex       int    `yaml:"wallet_index,omitempty" json:"wallet_index,omitempty"`
	ClientIndex       int    `yaml:"client_index,omitempty" json:"client_index,omitempty"`
	StrategyIndex     int    `yaml:"strategy_index,omitempty" json:"strategy_index,omitempty"`

	Strategies string `yaml:"strategies" json:"strategies"`

	GasLimit uint64 `yaml:"gas_limit,omitempty" json:"gas_limit,omitempty"`

	// Wei amounts are base-10 strings so values past int64 range survive
	// both YAML and flag parsing. Empty means unset.
	GasPrice             string `yaml:"gas_price,omitempty" json:"gas_price,omitempty"`
	MaxFeePerGas         string `yaml:"max_fee_per_gas,omitempty" json:"max_fee_per_gas,omitempty"`
	MaxPriorityFeePerGas string `yaml:"max_priority_fee_per_gas,omitempty" json:"max_priority_fee_per_gas,omitempty"`
	MaxFeePerBlobGas     string `yaml:"max_fee_per_blob_gas,omitempty" json:"max_fee_per_blob_gas,omitempty"`
	To                   string `yaml:"to,omitempty" json:"to,omitempty"`
	Value                string `yaml:"value,omitempty" json:"value,omitempty"`

	TxDelay        time.Duration `yaml:"tx_delay,omitempty" json:"tx_delay,omitempty"`
	TxCount        uint64        `yaml:"tx_count,omitempty" json:"tx_count,omitempty"`
	Rate           float64       `yaml:"rate,omitempty" json:"rate,omitempty"`
	MaxConcurrent  int           `yaml:"max_concurrent,omitempty" json:"max_concurrent,omitempty"`
	AwaitReceipt   bool          `yaml:"await_receipt,omitempty" json:"await_receipt,omitempty"`
	ReceiptTimeout time.Duration `yaml:"receipt_timeout,omitempty" json:"receipt_timeout,omitempty"`
	DryRun         bool          `yaml:"dry_run,omitempty" json:"dry_run,omitempty"`
}

// Validate validates the RunSpec and returns an error if it's invalid.
func (s *RunSpec) Validate() error {
	if s.KeysFile == "" {
		return fmt.Errorf("%w: keys_file must be specified", ErrConfiguration)
	}
	if s.RPCsFile == "" {
		return fmt.Errorf("%w: rpcs_file must be specified", ErrConfiguration)
	}
	if s.Strategies == "" {
		return fmt.Errorf("%w: no strategies specified", ErrConfiguration)
	}
	if _, err := ParseStrategies(s.Strategies); err != nil {
		return err
	}
	for _, mode := range []string{s.WalletSelection, s.ClientSelection, s.StrategySelection} {
		if mode == "" {
			continue
		}
		if _, err := ParseSelectionMode(mode); err != nil {
			return err
		}
	}
	if s.GasPrice != "" && (s.MaxFeePerGas != "" || s.MaxPriorityFeePerGas != "") {
		return fmt.Errorf("%w: gas_price cannot be combined with EIP-1559 fee fields", ErrInvalidParams)
	}
	for _, amount := range []string{s.GasPrice, s.MaxFeePerGas, s.MaxPriorityFeePerGas, s.MaxFeePerBlobGas, s.Value} {
		if _, err := ParseWei(amount); err != nil {
			return err
		}
	}
	if s.MaxConcurrent < 0 {
		return fmt.Errorf("%w: max_concurrent cannot be negative", ErrConfiguration)
	}
	return nil
}

// ParseWei parses a base-10 wei amount of arbitrary size. Empty input yields
// nil, meaning unset.
func ParseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid wei amount %q", ErrInvalidParams, s)
	}
	return v, nil
}
