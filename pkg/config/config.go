// Package config loads service configuration from the environment, with
// optional .env file support.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the service configuration.
type Config struct {
	// SpreadsheetID identifies the source Google Sheet.
	SpreadsheetID string

	// SheetRange is the sheet/tab name holding the products.
	SheetRange string

	// CredentialsFile is the service-account key for the Sheets API.
	CredentialsFile string

	// InvalidateToken authorizes the cache-invalidation endpoint.
	InvalidateToken string

	// AdminToken authorizes the add-product endpoint. Defaults to
	// InvalidateToken when unset.
	AdminToken string

	// CacheFile is the disk-cache location.
	CacheFile string

	Port      string
	LogLevel  string
	LogPretty bool
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (*Config, error) {
	// Best effort; the environment alone is fine.
	_ = godotenv.Load()

	cfg := &Config{
		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		SheetRange:      getEnv("SHEET_RANGE", "products"),
		CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "client_secret.json"),
		InvalidateToken: os.Getenv("INVALIDATE_TOKEN"),
		AdminToken:      os.Getenv("ADMIN_TOKEN"),
		CacheFile:       getEnv("CACHE_FILE", "products_cache.json"),
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       os.Getenv("LOG_PRETTY") == "true",
	}

	if cfg.AdminToken == "" {
		cfg.AdminToken = cfg.InvalidateToken
	}

	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID environment variable is required")
	}
	if cfg.InvalidateToken == "" {
		return nil, fmt.Errorf("INVALIDATE_TOKEN environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
