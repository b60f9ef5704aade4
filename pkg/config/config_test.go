package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/agentdeck/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := writeConfig(t, `
backend_url: https://deck.example.com
stream_url: wss://deck.example.com/ws
poll_interval: 10s
toast_types: [error]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://deck.example.com", cfg.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, []types.NotificationType{types.NotificationError}, cfg.ToastTypes)
	// Untouched keys keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2.0, cfg.Retry.BackoffFactor)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad url", content: "backend_url: not-a-url"},
		{name: "bad toast type", content: "toast_types: [banana]"},
		{name: "zero attempts", content: "retry:\n  max_attempts: 0"},
		{name: "malformed yaml", content: ":\n  - ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestRetryConfigPolicy(t *testing.T) {
	p := Default().Retry.Policy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
}
