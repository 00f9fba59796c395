package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the trackline service.
// Environment variables are parsed from the TRACKLINE_ prefix, e.g.
// TRACKLINE_HTTP_PORT, TRACKLINE_REMOTE_URL.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8484"`

	// DataDir holds the local store's SQLite file.
	DataDir string `envconfig:"DATA_DIR" default:""`

	// Remote document store
	RemoteURL    string `envconfig:"REMOTE_URL" default:""`
	RemoteAPIKey string `envconfig:"REMOTE_API_KEY" default:""`

	// SyncInterval is the periodic sync cadence while online and
	// foregrounded.
	SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"5m"`

	// ProbeInterval is how often the connectivity watcher pings the remote
	// while online. Offline probing backs off exponentially on its own.
	ProbeInterval time.Duration `envconfig:"PROBE_INTERVAL" default:"30s"`
}

// ResolveDefaults fills derived values and validates the result.
func (c *Config) ResolveDefaults() error {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(".", "data")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive, got %s", c.SyncInterval)
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("PROBE_INTERVAL must be positive, got %s", c.ProbeInterval)
	}
	return nil
}

// New creates a Config by parsing TRACKLINE_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("TRACKLINE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("data_dir", cfg.DataDir).
		Bool("remote_configured", cfg.RemoteURL != "").
		Dur("sync_interval", cfg.SyncInterval).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config with fixed values for tests.
func NewForTesting() *Config {
	return &Config{
		HTTPPort:      8484,
		DataDir:       "testdata",
		RemoteURL:     "http://localhost:9090",
		SyncInterval:  5 * time.Minute,
		ProbeInterval: 30 * time.Second,
	}
}

// StorePath returns the SQLite file path inside DataDir.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "trackline.db")
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// RemoteConfigured reports whether a remote document store is set up at all.
// Without one the app runs local-only, which is a supported mode, not an
// error.
func (c *Config) RemoteConfigured() bool { return c.RemoteURL != "" }
