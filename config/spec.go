package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nerolation/spamoor/types"
)

// LoadRunSpec reads and validates a YAML run spec.
func LoadRunSpec(path string) (*types.RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading run spec %s: %v", types.ErrConfiguration, path, err)
	}

	var spec types.RunSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: parsing run spec %s: %v", types.ErrConfiguration, path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}
