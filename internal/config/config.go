// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"categorical/internal/errors"
	"categorical/internal/logging"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "CATEGORICAL_"

// Weight kinds
const (
	WeightsFloat   = "float"
	WeightsDecimal = "decimal"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Weights selects the arithmetic used for probabilities
	Weights WeightsConfig `json:"weights"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// WeightsConfig contains probability arithmetic settings
type WeightsConfig struct {
	// Kind is float or decimal
	Kind string `json:"kind" env:"WEIGHTS"`

	// DivisionPrecision is the number of decimal places kept when dividing
	// decimal weights. Zero uses the decimal library default.
	DivisionPrecision int32 `json:"division_precision" env:"DIVISION_PRECISION"`

	// Tolerance is how far a total may drift from one before it is reported
	Tolerance float64 `json:"tolerance" env:"TOLERANCE"`

	// Renormalize rescales combined distributions whose total drifted past Tolerance
	Renormalize bool `json:"renormalize" env:"RENORMALIZE"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// Format is the default output format (cli, json)
	Format string `json:"format" env:"OUTPUT_FORMAT"`

	// Precision is the number of decimal places shown by the cli format
	Precision int `json:"precision" env:"OUTPUT_PRECISION"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1",
		Weights: WeightsConfig{
			Kind:      WeightsFloat,
			Tolerance: 1e-9,
		},
		Output: OutputConfig{
			Format:    "cli",
			Precision: 6,
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns $HOME/.categorical.json
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".categorical.json"
	}
	return filepath.Join(homeDir, ".categorical.json")
}

// Load loads configuration from a file, then applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.Config("invalid config file "+path, err)
		}
	case !os.IsNotExist(err):
		return nil, errors.Config("cannot read config file "+path, err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CATEGORICAL_* environment variables
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Config("invalid environment override", err)
	}
	return nil
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	switch c.Weights.Kind {
	case WeightsFloat, WeightsDecimal:
	default:
		return errors.Config("weights.kind must be float or decimal", nil).
			WithContext("kind", c.Weights.Kind)
	}
	if c.Weights.DivisionPrecision < 0 {
		return errors.Config("weights.division_precision must not be negative", nil)
	}
	if c.Weights.Tolerance < 0 {
		return errors.Config("weights.tolerance must not be negative", nil)
	}
	if c.Output.Precision < 0 {
		return errors.Config("output.precision must not be negative", nil)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
