package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/nerolation/spamoor/types"
)

// keyEntry is one object of the JSON key file variant.
type keyEntry struct {
	PrivateKey string `json:"private_key"`
}

// jsonArrayPattern extracts the first JSON array of objects from a file that
// may carry surrounding noise (shell output, trailing logs).
var jsonArrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)

// LoadPrivateKeys reads signing keys from path. Two formats are accepted:
// one raw hex key per line (0x prefix optional, # comments and blank lines
// skipped), or a JSON array of {"private_key": "0x…"} objects.
func LoadPrivateKeys(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading key file %s: %v", types.ErrConfiguration, path, err)
	}

	content := strings.TrimSpace(string(raw))
	if match := jsonArrayPattern.FindString(content); match != "" {
		keys, err := parseJSONKeys(match)
		if err == nil {
			return keys, nil
		}
		// fall through to line parsing when the array doesn't decode
	}

	keys := parseLineKeys(content)
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no private keys found in %s", types.ErrConfiguration, path)
	}
	return keys, nil
}

func parseJSONKeys(match string) ([]string, error) {
	var entries []keyEntry
	if err := json.Unmarshal([]byte(match), &entries); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		key := normalizeKey(e.PrivateKey)
		if key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: JSON key array holds no private_key entries", types.ErrConfiguration)
	}
	return keys, nil
}

func parseLineKeys(content string) []string {
	var keys []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key := normalizeKey(line); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// normalizeKey strips the 0x prefix and rejects anything that is not a
// 32-byte hex string.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "0x")
	if len(key) != 64 {
		return ""
	}
	for _, c := range key {
		if !isHexChar(c) {
			return ""
		}
	}
	return key
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
