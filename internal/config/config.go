// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Provider selection
	APIKey   string `json:"api_key,omitempty"`
	Provider string `json:"provider,omitempty" validate:"omitempty,oneof=gemini scripted"`
	Model    string `json:"model,omitempty"`

	// Persistence
	SessionDir  string `json:"session_dir,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`

	// Turn behavior
	MaxAttempts    int `json:"max_attempts,omitempty" validate:"omitempty,min=1,max=10"`
	TimeoutSeconds int `json:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=300"`

	// Prompt budgeting
	PromptCharBudget int `json:"prompt_char_budget,omitempty" validate:"omitempty,min=500"`
	RecentRawAnswers int `json:"recent_raw_answers,omitempty" validate:"omitempty,min=1"`

	// Behavior
	Verbose bool `json:"verbose,omitempty"`
	Port    int  `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
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
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.SessionDir != "" && c.DatabaseURL != "" {
		return fmt.Errorf("config error: 'session_dir' and 'database_url' are mutually exclusive")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.SessionDir == "" {
		result.SessionDir = defaults.SessionDir
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.PromptCharBudget == 0 {
		result.PromptCharBudget = defaults.PromptCharBudget
	}
	if result.RecentRawAnswers == 0 {
		result.RecentRawAnswers = defaults.RecentRawAnswers
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
