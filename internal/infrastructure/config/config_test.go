package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "https://api.frankfurter.app", cfg.RateAPIBaseURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EXPENSE_LISTEN_ADDR", ":9999")
	t.Setenv("EXPENSE_RATE_API_URL", "http://rates.test")
	t.Setenv("EXPENSE_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "http://rates.test", cfg.RateAPIBaseURL)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	// Untouched fields still default
	assert.Equal(t, "data", cfg.DataDir)
}
