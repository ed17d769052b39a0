// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the price database (always absolute)
	LogLevel        string
	Port            int
	DevMode         bool
	ProviderURL     string        // Yahoo chart API base URL
	BatchDays       int           // Days per provider request
	FetchWorkers    int           // Concurrent provider requests
	Pacing          time.Duration // Minimum spacing between provider requests
	MaxRetries      int           // Extra attempts per failed window
	RefreshSchedule string        // Cron expression (with seconds) for the watchlist refresh; empty disables it
	RefreshDays     int           // Trailing window the refresh job keeps cached
	RetentionDays   int           // Prune prices older than this; 0 keeps everything
	Watchlist       []string
	Benchmark       string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PT_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnvAsInt("PORT", 8001),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		ProviderURL:     getEnv("PT_PROVIDER_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
		BatchDays:       getEnvAsInt("PT_BATCH_DAYS", 100),
		FetchWorkers:    getEnvAsInt("PT_FETCH_WORKERS", 1),
		Pacing:          time.Duration(getEnvAsInt("PT_PACING_MS", 500)) * time.Millisecond,
		MaxRetries:      getEnvAsInt("PT_FETCH_RETRIES", 0),
		RefreshSchedule: getEnv("PT_REFRESH_SCHEDULE", "0 30 22 * * MON-FRI"), // after US close
		RefreshDays:     getEnvAsInt("PT_REFRESH_DAYS", 30),
		RetentionDays:   getEnvAsInt("PT_RETENTION_DAYS", 0),
		Watchlist:       utils.ParseCSV(getEnv("PT_WATCHLIST", "")),
		Benchmark:       getEnv("PT_BENCHMARK", "^GSPC"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.BatchDays < 1 {
		return fmt.Errorf("PT_BATCH_DAYS must be at least 1, got %d", c.BatchDays)
	}
	if c.FetchWorkers < 1 {
		return fmt.Errorf("PT_FETCH_WORKERS must be at least 1, got %d", c.FetchWorkers)
	}
	if c.Pacing < 0 {
		return fmt.Errorf("PT_PACING_MS must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("PT_FETCH_RETRIES must not be negative")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("PT_RETENTION_DAYS must not be negative")
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(c.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid PT_REFRESH_SCHEDULE %q: %w", c.RefreshSchedule, err)
		}
	}
	return nil
}

// DatabasePath is the location of the price history database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "history.db")
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
