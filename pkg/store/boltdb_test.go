package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMissingKeyIsNotFound verifies absence is reported via the sentinel,
// not as a generic failure.
func TestMissingKeyIsNotFound(t *testing.T) {
	s := newTestStore(t)

	var out string
	err := s.GetAuth(KeyAuthToken, &out)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAuthTokenRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutAuth(KeyAuthToken, "bearer-abc123"))

	var token string
	require.NoError(t, s.GetAuth(KeyAuthToken, &token))
	assert.Equal(t, "bearer-abc123", token)

	require.NoError(t, s.DeleteAuth(KeyAuthToken))
	err := s.GetAuth(KeyAuthToken, &token)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStructRoundTripPreservesTimestamps(t *testing.T) {
	s := newTestStore(t)

	type pref struct {
		PollInterval time.Duration `json:"poll_interval"`
		LastSync     time.Time     `json:"last_sync"`
	}

	in := pref{
		PollInterval: 30 * time.Second,
		LastSync:     time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, s.PutPreferences(KeySyncPreferences, in))

	var out pref
	require.NoError(t, s.GetPreferences(KeySyncPreferences, &out))
	assert.Equal(t, in.PollInterval, out.PollInterval)
	assert.True(t, in.LastSync.Equal(out.LastSync))
}

func TestOverwriteIsUpsert(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutPreferences("theme", "dark"))
	require.NoError(t, s.PutPreferences("theme", "light"))

	var theme string
	require.NoError(t, s.GetPreferences("theme", &theme))
	assert.Equal(t, "light", theme)
}
