// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Input   string `json:"input,omitempty"`   // Path to the RFP (PDF or text)
	Output  string `json:"output,omitempty"`  // Path of the generated proposal PDF
	Font    string `json:"font,omitempty"`    // TTF font for the rendered document
	Logo    string `json:"logo,omitempty"`    // Logo image for the title page
	Chart   string `json:"chart,omitempty"`   // Chart image for the solution section
	Profile string `json:"profile,omitempty"` // Company profile YAML

	// Model
	Provider string `json:"provider,omitempty"` // gemini or openai
	Model    string `json:"model,omitempty"`    // Overrides every tier
	APIKey   string `json:"api_key,omitempty"`

	// Pricing
	RatePerHour        float64 `json:"rate_per_hour,omitempty"`
	ProductivityFactor float64 `json:"productivity_factor,omitempty"`

	// Behavior
	Workers     int    `json:"workers,omitempty"`      // Concurrent requirement mappings
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisAddr   string `json:"redis_addr,omitempty"`   // Redis address for the response cache
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are checked by CLI flag validation after merging.
func (c *Config) Validate() error {
	switch c.Provider {
	case "", "gemini", "openai":
	default:
		return fmt.Errorf("config error: unknown provider %q (want gemini or openai)", c.Provider)
	}

	if c.RatePerHour < 0 {
		return fmt.Errorf("config error: 'rate_per_hour' must be non-negative")
	}
	if c.ProductivityFactor < 0 {
		return fmt.Errorf("config error: 'productivity_factor' must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}

	for name, path := range map[string]string{
		"input":   c.Input,
		"logo":    c.Logo,
		"chart":   c.Chart,
		"profile": c.Profile,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", name, path)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	for _, f := range []struct {
		dst *string
		def string
	}{
		{&result.Input, defaults.Input},
		{&result.Output, defaults.Output},
		{&result.Font, defaults.Font},
		{&result.Logo, defaults.Logo},
		{&result.Chart, defaults.Chart},
		{&result.Profile, defaults.Profile},
		{&result.Provider, defaults.Provider},
		{&result.Model, defaults.Model},
		{&result.APIKey, defaults.APIKey},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.RedisAddr, defaults.RedisAddr},
	} {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}

	if result.RatePerHour == 0 {
		result.RatePerHour = defaults.RatePerHour
	}
	if result.ProductivityFactor == 0 {
		result.ProductivityFactor = defaults.ProductivityFactor
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
