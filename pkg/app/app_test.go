package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/agentdeck/pkg/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNewWiresStack(t *testing.T) {
	a := newTestApp(t)

	assert.NotNil(t, a.DB)
	assert.NotNil(t, a.Auth)
	assert.NotNil(t, a.API)
	assert.NotNil(t, a.Cache)
	assert.NotNil(t, a.Notify)
	assert.NotNil(t, a.Stream)

	// Fresh install: initialized-but-logged-out is the expected state.
	assert.Empty(t, a.Auth.Token())
}

func TestPreferencesRoundTrip(t *testing.T) {
	a := newTestApp(t)

	// Absent preferences read as the zero value.
	assert.Equal(t, Preferences{}, a.Preferences())

	want := Preferences{DashboardTab: 2, LastEmailQuery: "invoice"}
	require.NoError(t, a.SavePreferences(want))
	assert.Equal(t, want, a.Preferences())
}
