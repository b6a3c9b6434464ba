// Package config loads ambient simulator configuration: logging and input
// source settings. It deliberately does not expose the site/variable
// topology as a tunable — ten sites, twenty variables, replication-by-
// parity are fixed by spec.md §3, not configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the simulator's ambient configuration tree, grounded on the
// teacher's build-config's yaml-tagged struct pattern.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	Input InputConfig `yaml:"input"`
}

// LogConfig controls internal diagnostic logging, not the event stream.
type LogConfig struct {
	Level  string `yaml:"level" env:"REPCREC_LOG_LEVEL"`
	Format string `yaml:"format" env:"REPCREC_LOG_FORMAT"` // "text" or "json"
}

// InputConfig controls where instructions are read from.
type InputConfig struct {
	Path string `yaml:"path" env:"REPCREC_INPUT_PATH"` // "" means stdin
}

// Default returns the configuration a bare invocation runs with: info-level
// text logging, reading from stdin.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Input: InputConfig{
			Path: "",
		},
	}
}

// Load builds a Config starting from Default, applying a YAML file at
// configPath if one is given, then environment overrides.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("config: load from file: %w", err)
		}
	}
	cfg.loadFromEnv()
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("REPCREC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REPCREC_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("REPCREC_INPUT_PATH"); v != "" {
		c.Input.Path = v
	}
}
