// Package config loads the baselines tool configuration from YAML, with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the baselines tool configuration
type Config struct {
	// Database is the path of the SQLite modification log.
	Database string `yaml:"database"`

	// Replica is this store's replica ID, used by the abandoned command.
	Replica string `yaml:"replica"`

	// SchemaFile is the CUE schema registry. Empty means every baseline
	// must carry DefaultSchemaVersion.
	SchemaFile string `yaml:"schema_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// MetricsFile, if set, receives Prometheus metrics in text format
	// after each command.
	MetricsFile string `yaml:"metrics_file"`
}

// DefaultSchemaVersion is the only known schema version when no schema
// file is configured.
const DefaultSchemaVersion = "v1"

// Default returns default configuration values
func Default() *Config {
	return &Config{
		Database: "baselines.db",
		LogLevel: "info",
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides, and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvironmentOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvironmentOverrides applies environment variable overrides to config
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("BASELINES_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("BASELINES_REPLICA"); v != "" {
		cfg.Replica = v
	}
	if v := os.Getenv("BASELINES_SCHEMA_FILE"); v != "" {
		cfg.SchemaFile = v
	}
	if v := os.Getenv("BASELINES_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BASELINES_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.New("database is required")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	return level, nil
}
