package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/metrics"
)

// Key identifies one logical data request: a name plus parameter values.
type Key string

// NewKey builds a key from a logical name and parameters
func NewKey(name string, params ...string) Key {
	if len(params) == 0 {
		return Key(name)
	}
	return Key(name + "/" + strings.Join(params, "/"))
}

// FetchFunc loads the data for one key
type FetchFunc func(ctx context.Context) (any, error)

// Options configures fetching for one key
type Options struct {
	// RefetchInterval schedules repeated fetches while a subscription is
	// open. Zero disables polling.
	RefetchInterval time.Duration

	// Retry is the retry policy for failed fetches.
	Retry RetryPolicy

	// ErrorFallback, when non-nil, replaces the data on fetch failure and
	// suppresses the error (degrade-gracefully policy for non-critical
	// widgets). When nil, the last successful data is kept and Err is set
	// (stale-but-displayed).
	ErrorFallback any
}

// Result is the consumer-visible state of one cached query
type Result struct {
	Data      any
	Err       error
	FetchedAt time.Time
	IsLoading bool
}

// ErrClosed is returned when the cache is used after Close
var ErrClosed = errors.New("query cache is closed")

// ErrUnknownKey is returned when refetching a key that was never fetched
var ErrUnknownKey = errors.New("unknown query key")

// DefaultIdleTTL is how long an entry with no subscribers survives before
// the sweeper evicts it.
const DefaultIdleTTL = 5 * time.Minute

// flight is one in-flight request for a key. Overlapping callers share a
// flight; a superseding refetch replaces it, and the sequence check decides
// whose response is applied.
type flight struct {
	seq          uint64
	done         chan struct{}
	data         any
	err          error
	usedFallback bool
	cancel       context.CancelFunc
}

// entry is the cached state for one key
type entry struct {
	key       Key
	data      any
	err       error
	fetchedAt time.Time

	// seq is the sequence number of the most recently issued request;
	// a completed flight is applied only when its seq still matches.
	seq      uint64
	inflight *flight

	fetch FetchFunc
	opts  Options

	subs       map[*Subscription]bool
	lastActive time.Time
}

// Cache deduplicates and schedules fetches keyed by (logical name, params).
// It is a process-wide singleton, safe for concurrent use; all writes go
// through its methods.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	idleTTL time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// CacheOptions configures the cache manager
type CacheOptions struct {
	// IdleTTL is how long unsubscribed entries are kept. Zero means
	// DefaultIdleTTL.
	IdleTTL time.Duration
}

// NewCache creates the query cache and starts its idle-entry sweeper
func NewCache(opts CacheOptions) *Cache {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries: make(map[Key]*entry),
		idleTTL: opts.IdleTTL,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Close stops the sweeper, cancels in-flight fetches and closes every
// subscription.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var subs []*Subscription
	for _, e := range c.entries {
		for sub := range e.subs {
			subs = append(subs, sub)
		}
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	c.cancel()
	<-c.done
}

// Fetch returns the value for key, joining an in-flight request when one
// exists (at-most-one-in-flight) and issuing one otherwise. The caller's
// context only bounds the wait; a shared flight keeps running for other
// consumers.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch FetchFunc, opts Options) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.entryLocked(key)
	e.fetch = fetch
	e.opts = opts
	e.lastActive = time.Now()

	fl := e.inflight
	if fl != nil {
		metrics.QuerySharedTotal.Inc()
	} else {
		fl = c.startFlightLocked(e)
	}
	c.mu.Unlock()

	return c.wait(ctx, fl)
}

// Refetch issues a new request for key, superseding any still-pending one:
// the older response will fail the sequence check and be discarded, so a
// slow poll can never overwrite this refetch's result.
func (c *Cache) Refetch(ctx context.Context, key Key) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e, ok := c.entries[key]
	if !ok || e.fetch == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	e.lastActive = time.Now()
	fl := c.startFlightLocked(e)
	c.mu.Unlock()

	return c.wait(ctx, fl)
}

// Invalidate marks key stale and, when it has ever been fetched, issues a
// superseding refetch in the background. Unknown keys are a no-op.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	e, ok := c.entries[key]
	if !ok || e.fetch == nil {
		return
	}
	e.fetchedAt = time.Time{}
	c.startFlightLocked(e)
}

// InvalidateAll invalidates every known key
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for _, e := range c.entries {
		if e.fetch != nil {
			e.fetchedAt = time.Time{}
			c.startFlightLocked(e)
		}
	}
}

// Peek returns the current cached state without fetching
func (c *Cache) Peek(key Key) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	return c.resultLocked(e), true
}

// entryLocked returns (creating if needed) the entry for key. Caller holds mu.
func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			key:        key,
			subs:       make(map[*Subscription]bool),
			lastActive: time.Now(),
		}
		c.entries[key] = e
	}
	return e
}

// startFlightLocked issues a new request for e, superseding any pending
// flight. Caller holds mu.
func (c *Cache) startFlightLocked(e *entry) *flight {
	e.seq++
	fctx, cancel := context.WithCancel(c.ctx)
	fl := &flight{
		seq:    e.seq,
		done:   make(chan struct{}),
		cancel: cancel,
	}
	e.inflight = fl
	go c.runFlight(fctx, e, fl)
	return fl
}

// runFlight executes one fetch (with the entry's retry policy) and applies
// the response if it is still the most recent request for the key.
func (c *Cache) runFlight(ctx context.Context, e *entry, fl *flight) {
	defer fl.cancel()

	c.mu.Lock()
	fetch := e.fetch
	policy := e.opts.Retry
	fallback := e.opts.ErrorFallback
	c.mu.Unlock()

	var data any
	var err error
	for attempt := 1; ; attempt++ {
		data, err = fetch(ctx)
		if err == nil || attempt >= policy.attempts() || ctx.Err() != nil {
			break
		}
		if c.superseded(e, fl) {
			// A newer request exists; its flight owns the key now.
			break
		}
		metrics.QueryRetriesTotal.Inc()
		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
		}
	}

	if err != nil && fallback != nil {
		// Degrade-gracefully: the named fallback stands in for the data
		// and the error is suppressed, for waiters and cache alike.
		data = fallback
		err = nil
		fl.usedFallback = true
	}

	fl.data = data
	fl.err = err
	c.apply(e, fl)
	close(fl.done)
}

// superseded reports whether a newer request has been issued for e
func (c *Cache) superseded(e *entry, fl *flight) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return e.seq != fl.seq
}

// apply writes a completed flight's response into the cache, subject to the
// monotonic sequence check, and pushes the new state to subscribers.
func (c *Cache) apply(e *entry, fl *flight) {
	c.mu.Lock()

	if e.inflight == fl {
		e.inflight = nil
	}

	if e.seq != fl.seq {
		// A newer request was issued for this key while we were in
		// flight; applying would overwrite newer data with stale data.
		c.mu.Unlock()
		metrics.QueryStaleDropsTotal.Inc()
		logger := log.WithQueryKey(string(e.key))
		logger.Debug().Msg("discarding stale query response")
		return
	}

	switch {
	case fl.err != nil:
		// Keep last successful data (stale-but-displayed).
		e.err = fl.err
		metrics.QueryFetchesTotal.WithLabelValues("error").Inc()
	case fl.usedFallback:
		e.data = fl.data
		e.err = nil
		e.fetchedAt = time.Now()
		metrics.QueryFetchesTotal.WithLabelValues("fallback").Inc()
	default:
		e.data = fl.data
		e.err = nil
		e.fetchedAt = time.Now()
		metrics.QueryFetchesTotal.WithLabelValues("ok").Inc()
	}

	res := c.resultLocked(e)
	subs := make([]*Subscription, 0, len(e.subs))
	for sub := range e.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.push(res)
	}
}

// resultLocked snapshots e. Caller holds mu.
func (c *Cache) resultLocked(e *entry) Result {
	return Result{
		Data:      e.data,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		IsLoading: e.inflight != nil,
	}
}

// wait blocks until fl completes or ctx is done
func (c *Cache) wait(ctx context.Context, fl *flight) (any, error) {
	select {
	case <-fl.done:
		return fl.data, fl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// sweep evicts entries that have had no subscribers for idleTTL
func (c *Cache) sweep() {
	defer close(c.done)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictIdle()
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Cache) evictIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.idleTTL)
	for key, e := range c.entries {
		if len(e.subs) == 0 && e.inflight == nil && e.lastActive.Before(cutoff) {
			delete(c.entries, key)
			metrics.QueryEntriesEvicted.Inc()
		}
	}
}

// FetchAs is a typed wrapper over Cache.Fetch
func FetchAs[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error), opts Options) (T, error) {
	data, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	v, ok := data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %s: unexpected cached type %T", key, data)
	}
	return v, nil
}
