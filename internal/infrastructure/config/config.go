// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds everything the server needs to run. Every field can be set
// through an EXPENSE_-prefixed environment variable.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `koanf:"EXPENSE_LISTEN_ADDR"`

	// DataDir is the directory holding the report archive database.
	DataDir string `koanf:"EXPENSE_DATA_DIR"`

	// RateAPIBaseURL is the historical-FX source queried per line.
	RateAPIBaseURL string `koanf:"EXPENSE_RATE_API_URL"`

	// OCRURL receives receipt files for field extraction.
	OCRURL string `koanf:"EXPENSE_OCR_URL"`

	// SubmitURL receives the assembled multipart report payload.
	SubmitURL string `koanf:"EXPENSE_SUBMIT_URL"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR, FATAL.
	LogLevel string `koanf:"EXPENSE_LOG_LEVEL"`
}

// Load reads configuration from the environment and fills in defaults.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("EXPENSE_", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.RateAPIBaseURL == "" {
		c.RateAPIBaseURL = "https://api.frankfurter.app"
	}
	if c.OCRURL == "" {
		c.OCRURL = "http://localhost:8081/process_receipt"
	}
	if c.SubmitURL == "" {
		c.SubmitURL = "http://localhost:8082/submit_expense"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
}
