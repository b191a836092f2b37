package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/nerolation/spamoor/types"
)

// portMapPattern matches kurtosis-style container service lines of the form
// "<name>  rpc: 8545/tcp -> 127.0.0.1:32769" and captures host and port.
var portMapPattern = regexp.MustCompile(`rpc:\s*\d+/tcp\s*->\s*([\d.a-zA-Z-]+):(\d+)`)

// LoadRPCEndpoints reads RPC endpoint URLs from path. Lines may be bare
// http(s)/ws(s) URLs or free-form container service listings from which a
// mapped rpc port is extracted.
func LoadRPCEndpoints(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading rpc file %s: %v", types.ErrConfiguration, path, err)
	}

	var endpoints []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if url, ok := parseEndpointLine(line); ok {
			endpoints = append(endpoints, url)
		}
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: no rpc endpoints found in %s", types.ErrConfiguration, path)
	}
	return endpoints, nil
}

func parseEndpointLine(line string) (string, bool) {
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(line, scheme) {
			// bare URL line, take the first whitespace-delimited token
			return strings.Fields(line)[0], true
		}
	}
	if m := portMapPattern.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("http://%s:%s", m[1], m[2]), true
	}
	return "", false
}
