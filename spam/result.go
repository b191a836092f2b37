package spam

import "encoding/json"

// Result summarizes one dispatch run.
type Result struct {
	Built  uint64 `json:"built"`
	Sent   uint64 `json:"sent"`
	Failed uint64 `json:"failed"`
	// PerStrategy counts completed iterations per strategy: submitted
	// transactions in a live run, built-and-signed ones in a dry run.
	PerStrategy     map[string]uint64 `json:"per_strategy,omitempty"`
	DurationSeconds float64           `json:"duration_seconds"`
	DryRun          bool              `json:"dry_run"`
}

// JSON renders the result as an indented JSON document for --json-summary.
func (r Result) JSON() (string, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
