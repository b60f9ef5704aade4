package query

import (
	"context"
	"sync"
)

// MutateFunc performs one server-side mutation
type MutateFunc func(ctx context.Context) error

// Mutation tracks the pending/error state of a user-triggered write and
// invalidates the affected query keys on success. There is no automatic
// dependency tracking: the caller names the keys its mutation touches.
type Mutation struct {
	cache       *Cache
	invalidates []Key

	mu      sync.Mutex
	pending bool
	err     error
}

// NewMutation creates a mutation bound to the keys it invalidates on success
func (c *Cache) NewMutation(invalidates ...Key) *Mutation {
	return &Mutation{cache: c, invalidates: invalidates}
}

// Mutate runs fn. On success every bound key is invalidated, causing live
// subscriptions to refetch. On failure the error is recorded and returned;
// surfacing it to the user is the caller's responsibility.
func (m *Mutation) Mutate(ctx context.Context, fn MutateFunc) error {
	m.mu.Lock()
	m.pending = true
	m.err = nil
	m.mu.Unlock()

	err := fn(ctx)

	m.mu.Lock()
	m.pending = false
	m.err = err
	m.mu.Unlock()

	if err != nil {
		return err
	}
	for _, key := range m.invalidates {
		m.cache.Invalidate(key)
	}
	return nil
}

// IsPending reports whether the mutation is in flight
func (m *Mutation) IsPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Err returns the last mutation error, nil after a success
func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}
