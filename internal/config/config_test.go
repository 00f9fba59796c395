package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("TRACKLINE_HTTP_PORT", "9999")
	t.Setenv("TRACKLINE_REMOTE_URL", "http://remote.example:8080")
	t.Setenv("TRACKLINE_SYNC_INTERVAL", "90s")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, ":9999", cfg.GetHTTPAddr())
	assert.True(t, cfg.RemoteConfigured())
	assert.Equal(t, 90*time.Second, cfg.SyncInterval)
}

func TestResolveDefaults(t *testing.T) {
	cfg := &Config{HTTPPort: 8484, SyncInterval: time.Minute, ProbeInterval: time.Second}
	require.NoError(t, cfg.ResolveDefaults())
	assert.NotEmpty(t, cfg.DataDir)
	assert.Contains(t, cfg.StorePath(), "trackline.db")

	bad := &Config{SyncInterval: 0, ProbeInterval: time.Second}
	assert.Error(t, bad.ResolveDefaults())
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	assert.True(t, cfg.RemoteConfigured())
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
}
