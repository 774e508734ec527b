package app

import "errors"

// Config holds everything an App instance needs to run one invocation.
type Config struct {
	ConfigPath string // HCL run configuration
	Device     string // run only this device block; empty = all

	LogFormat string
	LogLevel  string
	Force     bool // overwrite existing artifacts
	Compare   bool // emit cross-solver comparison artifacts after the batch
}

// NewConfig validates the invocation configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
