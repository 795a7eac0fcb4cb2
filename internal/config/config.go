package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all configuration for the client.
type Config struct {
	// BackendURL is the base URL of the blog service.
	BackendURL string

	// DataDir holds durable client state (the session database).
	DataDir string

	// CacheDir holds downloaded photos awaiting a share action.
	CacheDir string

	// ShareCommand is the helper used to present a file to the native
	// share facility.
	ShareCommand string

	// LocationCommand is the helper used to read the device position.
	LocationCommand string
}

// SessionPath returns the location of the session token database.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// Load reads configuration from environment variables with sensible
// defaults. Only the backend URL is required.
func Load() (*Config, error) {
	backendURL := os.Getenv("TOURBLOG_BACKEND_URL")
	if backendURL == "" {
		return nil, fmt.Errorf("TOURBLOG_BACKEND_URL is required")
	}

	dataDir := os.Getenv("TOURBLOG_DATA_DIR")
	if dataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config directory: %w", err)
		}
		dataDir = filepath.Join(base, "tourblog")
	}

	cacheDir := os.Getenv("TOURBLOG_CACHE_DIR")
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache directory: %w", err)
		}
		cacheDir = filepath.Join(base, "tourblog")
	}

	shareCommand := os.Getenv("TOURBLOG_SHARE_COMMAND")
	if shareCommand == "" {
		shareCommand = "xdg-open"
	}

	locationCommand := os.Getenv("TOURBLOG_LOCATION_COMMAND")
	if locationCommand == "" {
		locationCommand = "termux-location"
	}

	return &Config{
		BackendURL:      backendURL,
		DataDir:         dataDir,
		CacheDir:        cacheDir,
		ShareCommand:    shareCommand,
		LocationCommand: locationCommand,
	}, nil
}
