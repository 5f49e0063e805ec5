// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default upstream endpoints.
const (
	DefaultHypixelBaseURL = "https://api.hypixel.net"
	DefaultLowestBINURL   = "https://moulberry.codes/lowestbin.json"
	DefaultMojangBaseURL  = "https://api.mojang.com"
	DefaultNEURepoURL     = "https://raw.githubusercontent.com/NotEnoughUpdates/NotEnoughUpdates-Repo/master"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Directory for the client-data cache (always absolute)
	WatchlistFile string
	LogLevel      string
	LogPretty     bool
	Port          int

	HypixelAPIKey string // Optional; balance sync and profile lookup are disabled without it

	HypixelBaseURL string
	LowestBINURL   string
	MojangBaseURL  string
	NEURepoURL     string

	PollInterval      time.Duration
	RetryBackoff      time.Duration
	HypixelRatePerSec float64

	BazaarTaxRate  float64
	AuctionTaxRate float64

	AutoAcceptCorrections bool
	TrackOnStart          string // Item to start tracking right after boot (optional)
	InitialBudget         string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// api.env holds the API key in existing installs; .env is the conventional fallback.
	// Neither overrides variables already present in the environment.
	_ = godotenv.Load("api.env")
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:               absDataDir,
		WatchlistFile:         getEnv("WATCHLIST_FILE", "watchlist.txt"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogPretty:             getEnvAsBool("LOG_PRETTY", true),
		Port:                  getEnvAsInt("PORT", 8085),
		HypixelAPIKey:         strings.TrimSpace(getEnv("HYPIXEL_API_KEY", "")),
		HypixelBaseURL:        strings.TrimRight(getEnv("HYPIXEL_BASE_URL", DefaultHypixelBaseURL), "/"),
		LowestBINURL:          getEnv("LOWEST_BIN_URL", DefaultLowestBINURL),
		MojangBaseURL:         strings.TrimRight(getEnv("MOJANG_BASE_URL", DefaultMojangBaseURL), "/"),
		NEURepoURL:            strings.TrimRight(getEnv("NEU_REPO_URL", DefaultNEURepoURL), "/"),
		PollInterval:          getEnvAsDuration("POLL_INTERVAL", 15*time.Second),
		RetryBackoff:          getEnvAsDuration("RETRY_BACKOFF", 5*time.Second),
		HypixelRatePerSec:     getEnvAsFloat("HYPIXEL_RATE_PER_SEC", 2),
		BazaarTaxRate:         getEnvAsFloat("BAZAAR_TAX_RATE", 0.0125),
		AuctionTaxRate:        getEnvAsFloat("AUCTION_TAX_RATE", 0.035),
		AutoAcceptCorrections: getEnvAsBool("AUTO_ACCEPT_CORRECTIONS", true),
		TrackOnStart:          getEnv("TRACK_ON_START", ""),
		InitialBudget:         getEnv("BUDGET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.RetryBackoff <= 0 {
		return fmt.Errorf("RETRY_BACKOFF must be positive, got %s", c.RetryBackoff)
	}
	if c.BazaarTaxRate < 0 || c.BazaarTaxRate >= 1 {
		return fmt.Errorf("BAZAAR_TAX_RATE must be in [0,1), got %v", c.BazaarTaxRate)
	}
	if c.AuctionTaxRate < 0 || c.AuctionTaxRate >= 1 {
		return fmt.Errorf("AUCTION_TAX_RATE must be in [0,1), got %v", c.AuctionTaxRate)
	}
	if c.HypixelRatePerSec <= 0 {
		return fmt.Errorf("HYPIXEL_RATE_PER_SEC must be positive, got %v", c.HypixelRatePerSec)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

// HasAPIKey reports whether keyed Hypixel features are available.
func (c *Config) HasAPIKey() bool {
	return c.HypixelAPIKey != ""
}

// CacheDBPath is the location of the client-data cache database.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "client_data.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("15s") or bare seconds ("15").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
