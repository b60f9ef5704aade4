package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agentdeck/agentdeck/pkg/api"
	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/store"
	"github.com/agentdeck/agentdeck/pkg/types"
)

// Store holds the process-wide session and the persisted bearer token.
// Exactly one instance exists; all reads and writes go through it.
type Store struct {
	mu      sync.RWMutex
	session types.Session
	token   string
	db      *store.BoltStore
}

// NewStore creates the auth store and loads any persisted token.
// A missing token is the normal logged-out state, not an error.
func NewStore(db *store.BoltStore) (*Store, error) {
	s := &Store{db: db}

	var token string
	err := db.GetAuth(store.KeyAuthToken, &token)
	switch {
	case err == nil:
		s.token = token
	case errors.Is(err, store.ErrNotFound):
		// logged out
	default:
		return nil, fmt.Errorf("failed to load auth token: %w", err)
	}

	return s, nil
}

// Token returns the current bearer token, or "" when logged out.
// This is the TokenFunc handed to api.NewClient.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Session returns a copy of the current session
func (s *Store) Session() types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Initialize verifies a persisted token against the backend at startup.
// An invalid token clears the session without failing the boot; transport
// failures are returned so the caller can decide whether to proceed offline.
func (s *Store) Initialize(ctx context.Context, client *api.Client) error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		s.setInitialized(types.Session{IsInitialized: true})
		return nil
	}

	resp, err := client.VerifyToken(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			logger := log.WithComponent("auth")
			logger.Info().Msg("stored token rejected, clearing session")
			s.clear()
			s.setInitialized(types.Session{IsInitialized: true})
			return nil
		}
		// Keep the token; the backend may just be unreachable.
		s.setInitialized(types.Session{IsInitialized: true})
		return fmt.Errorf("token verification failed: %w", err)
	}

	s.setInitialized(types.Session{
		UserID:          resp.UserID,
		Username:        resp.Username,
		IsAuthenticated: true,
		IsInitialized:   true,
	})
	return nil
}

// Login authenticates with the backend and persists the returned token
func (s *Store) Login(ctx context.Context, client *api.Client, username, password string) error {
	resp, err := client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if err := s.db.PutAuth(store.KeyAuthToken, resp.Token); err != nil {
		return fmt.Errorf("failed to persist auth token: %w", err)
	}

	s.mu.Lock()
	s.token = resp.Token
	s.session = types.Session{
		UserID:          resp.UserID,
		Username:        resp.Username,
		IsAuthenticated: true,
		IsInitialized:   true,
	}
	s.mu.Unlock()

	return nil
}

// Logout destroys the session and removes the persisted token
func (s *Store) Logout() error {
	s.clear()
	return nil
}

// Invalidate clears the session in response to a 401 observed elsewhere
func (s *Store) Invalidate() {
	s.clear()
}

func (s *Store) clear() {
	if err := s.db.DeleteAuth(store.KeyAuthToken); err != nil {
		logger := log.WithComponent("auth")
		logger.Warn().Err(err).Msg("failed to delete persisted token")
	}

	s.mu.Lock()
	s.token = ""
	s.session = types.Session{IsInitialized: s.session.IsInitialized}
	s.mu.Unlock()
}

func (s *Store) setInitialized(session types.Session) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
}
