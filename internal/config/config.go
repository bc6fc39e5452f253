// Package config provides configuration loading and validation for the service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds service configuration. Values come from an optional JSON
// file, then environment variables override file values, then defaults
// fill whatever is left.
type Config struct {
	Port         string // HTTP listen port
	DatabaseURL  string // PostgreSQL connection URL
	GeminiAPIKey string // Gemini API key

	// Generation behavior
	MaxRetries     int           // Retries after the first generation attempt
	RetryBaseDelay time.Duration // Base backoff between generation attempts

	// Batch refresh behavior
	BatchDelay time.Duration // Pause between industries in a batch run
	BatchCron  string        // Cron expression for the scheduled refresh
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		Port:           "8080",
		MaxRetries:     3,
		RetryBaseDelay: 2 * time.Second,
		BatchDelay:     30 * time.Second,
		BatchCron:      "0 3 * * 0",
	}
}

// fileConfig is the on-disk shape. Durations are strings in Go's
// time.ParseDuration syntax ("2s", "500ms").
type fileConfig struct {
	Port           string `json:"port,omitempty"`
	DatabaseURL    string `json:"database_url,omitempty"`
	GeminiAPIKey   string `json:"gemini_api_key,omitempty"`
	MaxRetries     int    `json:"max_retries,omitempty"`
	RetryBaseDelay string `json:"retry_base_delay,omitempty"`
	BatchDelay     string `json:"batch_delay,omitempty"`
	BatchCron      string `json:"batch_cron,omitempty"`
}

// Load builds the effective configuration. path may be empty, in which
// case only environment variables and defaults apply.
func Load(path string) (*Config, error) {
	cfg := Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var fc fileConfig
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		cfg.Port = fc.Port
		cfg.DatabaseURL = fc.DatabaseURL
		cfg.GeminiAPIKey = fc.GeminiAPIKey
		cfg.MaxRetries = fc.MaxRetries
		cfg.BatchCron = fc.BatchCron
		if fc.RetryBaseDelay != "" {
			d, err := time.ParseDuration(fc.RetryBaseDelay)
			if err != nil {
				return nil, fmt.Errorf("config error: invalid 'retry_base_delay': %w", err)
			}
			cfg.RetryBaseDelay = d
		}
		if fc.BatchDelay != "" {
			d, err := time.ParseDuration(fc.BatchDelay)
			if err != nil {
				return nil, fmt.Errorf("config error: invalid 'batch_delay': %w", err)
			}
			cfg.BatchDelay = d
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults(Defaults())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("RETRY_BASE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RetryBaseDelay = d
		}
	}
	if v := os.Getenv("BATCH_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.BatchDelay = d
		}
	}
	if v := os.Getenv("BATCH_CRON"); v != "" {
		c.BatchCron = v
	}
}

func (c *Config) applyDefaults(defaults Config) {
	if c.Port == "" {
		c.Port = defaults.Port
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = defaults.RetryBaseDelay
	}
	if c.BatchDelay == 0 {
		c.BatchDelay = defaults.BatchDelay
	}
	if c.BatchCron == "" {
		c.BatchCron = defaults.BatchCron
	}
}

// Validate checks numeric ranges. Required secrets (database URL, API
// key) are checked by the commands that need them, not here, so tooling
// that touches neither can still load a config.
func (c *Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("config error: 'max_retries' must be non-negative")
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("config error: 'retry_base_delay' must be non-negative")
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("config error: 'batch_delay' must be non-negative")
	}
	return nil
}
