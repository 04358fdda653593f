// Package config loads and validates application configuration from YAML
// files with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Encoder EncoderConfig `yaml:"encoder"`
	Harness HarnessConfig `yaml:"harness"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects the example store backend.
type StoreConfig struct {
	// DSN is the SQLite data source name; ":memory:" or a file path.
	// "mem" selects the in-memory map store.
	DSN string `yaml:"dsn"`
}

// EncoderConfig holds embedding-table settings.
type EncoderConfig struct {
	Dim  int   `yaml:"dim"`
	Seed int64 `yaml:"seed"`
}

// HarnessConfig holds scoring-run settings.
type HarnessConfig struct {
	BatchSize    int     `yaml:"batchSize"`
	Margin       float64 `yaml:"margin"`
	MaxEpoch     int     `yaml:"maxEpoch"`
	Seed         int64   `yaml:"seed"`
	FilterLength int     `yaml:"filterLength"` // skip sequences longer than this; 0 = no limit
	Workers      int     `yaml:"workers"`      // parallel batches; 0 = sequential
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Default returns a runnable configuration.
func Default() Config {
	return Config{
		Store:   StoreConfig{DSN: ":memory:"},
		Encoder: EncoderConfig{Dim: 64, Seed: 11},
		Harness: HarnessConfig{BatchSize: 10, Margin: 1, MaxEpoch: 5, Seed: 11},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays TREEINDUCE_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TREEINDUCE_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("TREEINDUCE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TREEINDUCE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TREEINDUCE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Harness.BatchSize = n
		}
	}
	if v := os.Getenv("TREEINDUCE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Harness.Seed = n
		}
	}
}

// Validate rejects configurations the harness cannot run with.
func (c Config) Validate() error {
	if c.Store.DSN == "" {
		return fmt.Errorf("config: store.dsn must be set")
	}
	if c.Encoder.Dim < 1 {
		return fmt.Errorf("config: encoder.dim %d, want >= 1", c.Encoder.Dim)
	}
	if c.Harness.BatchSize < 1 {
		return fmt.Errorf("config: harness.batchSize %d, want >= 1", c.Harness.BatchSize)
	}
	if c.Harness.Margin < 0 {
		return fmt.Errorf("config: harness.margin %v, want >= 0", c.Harness.Margin)
	}
	if c.Harness.MaxEpoch < 1 {
		return fmt.Errorf("config: harness.maxEpoch %d, want >= 1", c.Harness.MaxEpoch)
	}
	if c.Harness.Workers < 0 {
		return fmt.Errorf("config: harness.workers %d, want >= 0", c.Harness.Workers)
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("config: logging.format %q, want json or text", c.Logging.Format)
	}
	return nil
}
