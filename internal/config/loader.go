package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads path, expands ${VAR}/$VAR references against the process
// environment, and strictly decodes the result into a Config seeded with
// Default()'s values. Unknown fields are rejected so a typo'd key surfaces
// at load time rather than silently falling back to a zero value.
//
// A single file is the whole configuration surface; there is no include
// or overlay mechanism.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("parse config: expected a single YAML document")
	}

	if err := ValidateVersion(cfg.Version); err != nil {
		return nil, err
	}

	return cfg, nil
}
