package query

import (
	"context"
	"sync"
	"time"
)

// Subscription is one view's live attachment to a cached query. It receives
// a Result snapshot after every applied fetch and, when RefetchInterval is
// set, drives the polling schedule while open.
type Subscription struct {
	cache   *Cache
	key     Key
	updates chan Result
	cancel  context.CancelFunc
	done    chan struct{}

	closeOnce sync.Once
	pushMu    sync.Mutex
	detached  bool
}

// Subscribe attaches to key, issues an initial fetch when no fresh entry
// exists, and starts the polling ticker when opts.RefetchInterval is set.
// Close the subscription when the owning view goes away; that cancels its
// pending poll and stops the schedule.
func (c *Cache) Subscribe(key Key, fetch FetchFunc, opts Options) (*Subscription, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	e := c.entryLocked(key)
	e.fetch = fetch
	e.opts = opts
	e.lastActive = time.Now()

	ctx, cancel := context.WithCancel(c.ctx)
	sub := &Subscription{
		cache:   c,
		key:     key,
		updates: make(chan Result, 8),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	e.subs[sub] = true

	// Initial fetch: join the in-flight request when one exists.
	if e.inflight == nil && e.fetchedAt.IsZero() {
		c.startFlightLocked(e)
	}
	c.mu.Unlock()

	go sub.run(ctx, opts.RefetchInterval)
	return sub, nil
}

// Updates returns the channel of result snapshots. The channel is buffered;
// a slow consumer misses intermediate snapshots but always observes a later
// one. It is closed when the subscription closes.
func (s *Subscription) Updates() <-chan Result {
	return s.updates
}

// Current returns the present cached state for the subscription's key
func (s *Subscription) Current() Result {
	res, _ := s.cache.Peek(s.key)
	return res
}

// Refetch manually refreshes the key, superseding any pending poll
func (s *Subscription) Refetch(ctx context.Context) (any, error) {
	return s.cache.Refetch(ctx, s.key)
}

// Close detaches the subscription: the polling schedule stops, a pending
// poll with no other consumers is cancelled, and Updates is closed.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.pushMu.Lock()
		s.detached = true
		s.pushMu.Unlock()

		s.cancel()

		c := s.cache
		c.mu.Lock()
		if e, ok := c.entries[s.key]; ok {
			delete(e.subs, s)
			e.lastActive = time.Now()
			if len(e.subs) == 0 && e.inflight != nil {
				// No view is left to consume the pending poll.
				e.inflight.cancel()
			}
		}
		c.mu.Unlock()

		<-s.done
		close(s.updates)
	})
}

// push delivers a snapshot without blocking the cache
func (s *Subscription) push(res Result) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	if s.detached {
		return
	}
	select {
	case s.updates <- res:
	default:
		// Buffer full; the consumer will catch a later snapshot.
	}
}

// run drives the polling schedule
func (s *Subscription) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.poll()
		case <-ctx.Done():
			return
		}
	}
}

// poll issues a scheduled fetch unless one is already in flight
func (s *Subscription) poll() {
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	e, ok := c.entries[s.key]
	if !ok || e.fetch == nil {
		return
	}
	e.lastActive = time.Now()
	if e.inflight == nil {
		c.startFlightLocked(e)
	}
}
