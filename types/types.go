package types

import (
	"fmt"
	"strings"
)

// SelectionMode determines how the next element of a pool is chosen.
type SelectionMode int

const (
	// SelectByIndex returns the element at an explicit, caller-supplied index.
	SelectByIndex SelectionMode = iota
	// SelectRandom draws a uniformly random element.
	SelectRandom
	// SelectRoundRobin cycles through the pool in insertion order.
	SelectRoundRobin
)

func (m SelectionMode) String() string {
	switch m {
	case SelectByIndex:
		return "index"
	case SelectRandom:
		return "random"
	case SelectRoundRobin:
		return "round-robin"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseSelectionMode parses the CLI representation of a selection mode.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "index":
		return SelectByIndex, nil
	case "random":
		return SelectRandom, nil
	case "round-robin", "roundrobin":
		return SelectRoundRobin, nil
	default:
		return 0, fmt.Errorf("%w: invalid selection mode %q", ErrConfiguration, s)
	}
}

// Strategy tags a transaction construction strategy. Strategies are
// stateless; the tag selects a builder in the tx factory.
type Strategy string

const (
	StrategyStandardTx       Strategy = "standard-tx"
	StrategyCalldataZeros    Strategy = "calldata-zeros"
	StrategyCalldataNonZeros Strategy = "calldata-non-zeros"
	StrategyCalldataMix      Strategy = "calldata-mix"
	StrategyAccessList       Strategy = "access-list"
	StrategyBlobs            Strategy = "blobs"
)

// Strategies lists every known strategy in declaration order.
var Strategies = []Strategy{
	StrategyStandardTx,
	StrategyCalldataZeros,
	StrategyCalldataNonZeros,
	StrategyCalldataMix,
	StrategyAccessList,
	StrategyBlobs,
}

func (s Strategy) String() string {
	return string(s)
}

// Valid reports whether s is a known strategy tag.
func (s Strategy) Valid() bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStrategies parses a comma-separated strategy list.
func ParseStrategies(list string) ([]Strategy, error) {
	var out []Strategy
	for _, part := range strings.Split(list, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		s := Strategy(part)
		if !s.Valid() {
			return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, part)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no strategies specified", ErrConfiguration)
	}
	return out, nil
}
