package config

import (
	"path/filepath"
	"testing"
)

func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("TOURBLOG_BACKEND_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without TOURBLOG_BACKEND_URL, want error")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOURBLOG_BACKEND_URL", "https://blog.example.com")
	t.Setenv("TOURBLOG_DATA_DIR", "")
	t.Setenv("TOURBLOG_CACHE_DIR", "")
	t.Setenv("TOURBLOG_SHARE_COMMAND", "")
	t.Setenv("TOURBLOG_LOCATION_COMMAND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BackendURL != "https://blog.example.com" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.ShareCommand != "xdg-open" {
		t.Errorf("ShareCommand = %q, want xdg-open", cfg.ShareCommand)
	}
	if cfg.LocationCommand != "termux-location" {
		t.Errorf("LocationCommand = %q, want termux-location", cfg.LocationCommand)
	}
	if cfg.DataDir == "" || cfg.CacheDir == "" {
		t.Error("DataDir and CacheDir must default to user directories")
	}
}

func TestSessionPath(t *testing.T) {
	t.Setenv("TOURBLOG_BACKEND_URL", "https://blog.example.com")
	t.Setenv("TOURBLOG_DATA_DIR", "/var/lib/tourblog")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := filepath.Join("/var/lib/tourblog", "session.db")
	if got := cfg.SessionPath(); got != want {
		t.Errorf("SessionPath() = %q, want %q", got, want)
	}
}
