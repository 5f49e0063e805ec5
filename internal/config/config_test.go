package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("HYPIXEL_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.RetryBackoff)
	assert.Equal(t, 0.0125, cfg.BazaarTaxRate)
	assert.Equal(t, 0.035, cfg.AuctionTaxRate)
	assert.Equal(t, DefaultHypixelBaseURL, cfg.HypixelBaseURL)
	assert.Equal(t, "watchlist.txt", cfg.WatchlistFile)
	assert.False(t, cfg.HasAPIKey())
	assert.Equal(t, filepath.Join(cfg.DataDir, "client_data.db"), cfg.CacheDBPath())
}

func TestLoad_ReadsAPIEnvFile(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	// t.Setenv registers cleanup; unset afterwards so godotenv may fill it in.
	t.Setenv("HYPIXEL_API_KEY", "")
	require.NoError(t, os.Unsetenv("HYPIXEL_API_KEY"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "api.env"), []byte("HYPIXEL_API_KEY=file-key\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.HypixelAPIKey)
	assert.True(t, cfg.HasAPIKey())
	_ = os.Unsetenv("HYPIXEL_API_KEY")
}

func TestLoad_Overrides(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("POLL_INTERVAL", "30")
	t.Setenv("RETRY_BACKOFF", "750ms")
	t.Setenv("HYPIXEL_BASE_URL", "http://localhost:9999/")
	t.Setenv("AUTO_ACCEPT_CORRECTIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, "http://localhost:9999", cfg.HypixelBaseURL)
	assert.False(t, cfg.AutoAcceptCorrections)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			PollInterval:      time.Second,
			RetryBackoff:      time.Second,
			BazaarTaxRate:     0.0125,
			AuctionTaxRate:    0.035,
			HypixelRatePerSec: 1,
			Port:              8085,
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"negative backoff", func(c *Config) { c.RetryBackoff = -time.Second }},
		{"tax rate of one", func(c *Config) { c.BazaarTaxRate = 1 }},
		{"negative auction tax", func(c *Config) { c.AuctionTaxRate = -0.1 }},
		{"zero rate limit", func(c *Config) { c.HypixelRatePerSec = 0 }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
