package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/agentdeck/pkg/api"
	"github.com/agentdeck/agentdeck/pkg/store"
)

func newTestDB(t *testing.T) *store.BoltStore {
	t.Helper()
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoginPersistsTokenAndSetsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var req api.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(api.LoginResponse{Token: "tok-1", UserID: "u-1", Username: "sam"})
	}))
	defer srv.Close()

	db := newTestDB(t)
	s, err := NewStore(db)
	require.NoError(t, err)
	client := api.NewClient(srv.URL, s.Token)

	require.NoError(t, s.Login(context.Background(), client, "sam", "hunter2"))

	sess := s.Session()
	assert.True(t, sess.IsAuthenticated)
	assert.Equal(t, "sam", sess.Username)
	assert.Equal(t, "tok-1", s.Token())

	// The token survived into persistence: a fresh store sees it.
	s2, err := NewStore(db)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", s2.Token())
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
	}))
	defer srv.Close()

	s, err := NewStore(newTestDB(t))
	require.NoError(t, err)
	client := api.NewClient(srv.URL, s.Token)

	err = s.Login(context.Background(), client, "sam", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	assert.False(t, s.Session().IsAuthenticated)
	assert.Empty(t, s.Token())
}

func TestInitializeWithoutTokenIsLoggedOut(t *testing.T) {
	s, err := NewStore(newTestDB(t))
	require.NoError(t, err)

	require.NoError(t, s.Initialize(context.Background(), api.NewClient("http://unused", s.Token)))
	sess := s.Session()
	assert.True(t, sess.IsInitialized)
	assert.False(t, sess.IsAuthenticated)
}

func TestInitializeRejectedTokenClearsFailSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Token expired"})
	}))
	defer srv.Close()

	db := newTestDB(t)
	require.NoError(t, db.PutAuth(store.KeyAuthToken, "stale-tok"))
	s, err := NewStore(db)
	require.NoError(t, err)
	require.Equal(t, "stale-tok", s.Token())

	client := api.NewClient(srv.URL, s.Token)
	// An invalid stored token must not fail the boot.
	require.NoError(t, s.Initialize(context.Background(), client))

	sess := s.Session()
	assert.True(t, sess.IsInitialized)
	assert.False(t, sess.IsAuthenticated)
	assert.Empty(t, s.Token())

	var gone string
	assert.ErrorIs(t, db.GetAuth(store.KeyAuthToken, &gone), store.ErrNotFound)
}

func TestInitializeTransportFailureKeepsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	db := newTestDB(t)
	require.NoError(t, db.PutAuth(store.KeyAuthToken, "maybe-good"))
	s, err := NewStore(db)
	require.NoError(t, err)

	client := api.NewClient(srv.URL, s.Token)
	err = s.Initialize(context.Background(), client)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrNetwork)

	// The backend may just be down; the token stays for the next attempt.
	assert.Equal(t, "maybe-good", s.Token())
	assert.True(t, s.Session().IsInitialized)
}

func TestVerifiedTokenAuthenticates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer good-tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(api.VerifyResponse{UserID: "u-7", Username: "alex"})
	}))
	defer srv.Close()

	db := newTestDB(t)
	require.NoError(t, db.PutAuth(store.KeyAuthToken, "good-tok"))
	s, err := NewStore(db)
	require.NoError(t, err)

	client := api.NewClient(srv.URL, s.Token)
	require.NoError(t, s.Initialize(context.Background(), client))

	sess := s.Session()
	assert.True(t, sess.IsAuthenticated)
	assert.Equal(t, "alex", sess.Username)
}

func TestLogoutDestroysSessionAndToken(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.PutAuth(store.KeyAuthToken, "tok"))
	s, err := NewStore(db)
	require.NoError(t, err)

	require.NoError(t, s.Logout())
	assert.Empty(t, s.Token())
	assert.False(t, s.Session().IsAuthenticated)

	var gone string
	assert.ErrorIs(t, db.GetAuth(store.KeyAuthToken, &gone), store.ErrNotFound)
}
