// Package config provides configuration loading and validation for the
// extraction engine. Values come from an optional JSON file merged with
// environment variables; CLI flags override both.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the engine configuration. All fields are optional; missing
// values use defaults or must arrive via CLI flags.
type Config struct {
	// External services
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Completion-service API key

	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Pipeline tuning
	FetchTimeoutSecs int  `json:"fetch_timeout_secs,omitempty"` // Hard per-fetch wall clock limit
	SanitizeMaxChars int  `json:"sanitize_max_chars,omitempty"` // Character budget for sanitized content
	UseBrowser       bool `json:"use_browser,omitempty"`        // Fall back to headless Chrome for SPA pages
	ModelTier        string `json:"model_tier,omitempty"`       // lite | standard | advanced

	// Bulk dispatch
	BatchWorkers  int `json:"batch_workers,omitempty"`   // Bounded worker pool size
	BatchPacingMs int `json:"batch_pacing_ms,omitempty"` // Pacing floor between dispatches

	// Logging
	LogLevel string `json:"log_level,omitempty"` // debug | info | warn | error
	DevLog   bool   `json:"dev_log,omitempty"`   // Human-readable console encoder
}

// Defaults mirrored from the package constants they feed.
const (
	DefaultPort          = 8080
	DefaultFetchTimeout  = 20
	DefaultBatchWorkers  = 1
	DefaultBatchPacingMs = 1200
)

// Load reads configuration from a JSON file. An empty path returns an
// empty config so env and flags can fill everything in.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
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

// ApplyEnv fills unset fields from environment variables.
func (c *Config) ApplyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Port == 0 {
		if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			c.Port = v
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = os.Getenv("LOG_LEVEL")
	}
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.FetchTimeoutSecs < 0 {
		return fmt.Errorf("config error: 'fetch_timeout_secs' must be non-negative")
	}
	if c.SanitizeMaxChars < 0 {
		return fmt.Errorf("config error: 'sanitize_max_chars' must be non-negative")
	}
	if c.BatchWorkers < 0 {
		return fmt.Errorf("config error: 'batch_workers' must be non-negative")
	}
	if c.BatchPacingMs < 0 {
		return fmt.Errorf("config error: 'batch_pacing_ms' must be non-negative")
	}
	switch c.ModelTier {
	case "", "lite", "standard", "advanced":
	default:
		return fmt.Errorf("config error: 'model_tier' must be lite, standard, or advanced")
	}
	return nil
}

// PortOrDefault returns the configured port or the default.
func (c *Config) PortOrDefault() int {
	if c.Port == 0 {
		return DefaultPort
	}
	return c.Port
}

// FetchTimeout returns the configured fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	secs := c.FetchTimeoutSecs
	if secs == 0 {
		secs = DefaultFetchTimeout
	}
	return time.Duration(secs) * time.Second
}

// BatchPacing returns the configured pacing floor as a duration.
func (c *Config) BatchPacing() time.Duration {
	ms := c.BatchPacingMs
	if ms == 0 {
		ms = DefaultBatchPacingMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Workers returns the configured worker pool size or the default.
func (c *Config) Workers() int {
	if c.BatchWorkers == 0 {
		return DefaultBatchWorkers
	}
	return c.BatchWorkers
}
