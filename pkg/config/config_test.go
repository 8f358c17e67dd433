package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("INVALIDATE_TOKEN", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SheetRange != "products" {
		t.Errorf("Expected default sheet range 'products', got %s", cfg.SheetRange)
	}
	if cfg.CredentialsFile != "client_secret.json" {
		t.Errorf("Expected default credentials file, got %s", cfg.CredentialsFile)
	}
	if cfg.CacheFile != "products_cache.json" {
		t.Errorf("Expected default cache file, got %s", cfg.CacheFile)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.LogLevel)
	}
}

func TestLoad_AdminTokenFallsBackToInvalidateToken(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AdminToken != "secret" {
		t.Errorf("Expected admin token to default to invalidate token, got %s", cfg.AdminToken)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SHEET_RANGE", "inventory")
	t.Setenv("ADMIN_TOKEN", "other-secret")
	t.Setenv("CACHE_FILE", "/var/cache/products.json")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SheetRange != "inventory" || cfg.AdminToken != "other-secret" ||
		cfg.CacheFile != "/var/cache/products.json" || cfg.Port != "9090" {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if !cfg.LogPretty {
		t.Error("Expected LOG_PRETTY=true to enable pretty logging")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantMsg string
	}{
		{"missing_spreadsheet_id", "SPREADSHEET_ID", "SPREADSHEET_ID"},
		{"missing_invalidate_token", "INVALIDATE_TOKEN", "INVALIDATE_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			if err == nil {
				t.Fatal("Expected configuration error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error to mention %s, got %v", tt.wantMsg, err)
			}
		})
	}
}
