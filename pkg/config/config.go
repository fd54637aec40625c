// Package config loads YAML configuration files with ${ENV} expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configs that check (and default) themselves
// after decoding.
type Validator interface {
	Validate() error
}

// Load reads filename over target, expanding environment variables first,
// then validates target.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return validate(target)
}

// LoadOptional is Load for a file that may not exist. A missing file leaves
// target untouched (it is expected to hold defaults) and reports false.
func LoadOptional[T any](filename string, target *T) (bool, error) {
	_, err := os.Stat(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return false, validate(target)
	case err != nil:
		return false, fmt.Errorf("failed to stat config file %s: %w", filename, err)
	}
	return true, Load(filename, target)
}

func validate(target any) error {
	v, ok := target.(Validator)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
