package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := NewCache(CacheOptions{})
	t.Cleanup(c.Close)
	return c
}

func TestNewKey(t *testing.T) {
	tests := []struct {
		name    string
		logical string
		params  []string
		want    Key
	}{
		{name: "no params", logical: "agents", want: Key("agents")},
		{name: "one param", logical: "workflow-executions", params: []string{"wf-1"}, want: Key("workflow-executions/wf-1")},
		{name: "two params", logical: "emails", params: []string{"inbox", "q"}, want: Key("emails/inbox/q")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewKey(tt.logical, tt.params...))
		})
	}
}

// TestOverlappingFetchesShareOneRequest covers the at-most-one-in-flight
// property: N overlapping fetches for one key dispatch exactly one network
// call and all resolve to the same value.
func TestOverlappingFetchesShareOneRequest(t *testing.T) {
	c := newTestCache(t)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "payload", nil
	}

	const n = 5
	var wg sync.WaitGroup
	results := make([]any, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Fetch(context.Background(), Key("agents"), fetch, Options{})
		}(i)
	}

	// Let all callers attach before the fetch resolves.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "payload", results[i])
	}
}

// TestStaleResponseRejected covers monotonic sequencing: request A is
// issued, B supersedes it, and A resolves after B, so the cache must
// reflect B.
func TestStaleResponseRejected(t *testing.T) {
	c := newTestCache(t)
	key := Key("tasks")

	releaseA := make(chan struct{})
	var call atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		switch call.Add(1) {
		case 1:
			<-releaseA
			return "stale", nil
		default:
			return "fresh", nil
		}
	}

	// Issue A and give its goroutine time to enter the fetch.
	aDone := make(chan struct{})
	go func() {
		defer close(aDone)
		c.Fetch(context.Background(), key, fetch, Options{})
	}()
	time.Sleep(50 * time.Millisecond)

	// B supersedes A and resolves immediately.
	got, err := c.Refetch(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	// Now let A resolve late.
	close(releaseA)
	<-aDone
	time.Sleep(50 * time.Millisecond)

	res, ok := c.Peek(key)
	require.True(t, ok)
	assert.Equal(t, "fresh", res.Data, "stale response must not overwrite newer data")
}

// TestErrorFallback covers the degrade-gracefully policy for dashboard
// widgets: a failing endpoint yields the named empty default, not an error.
func TestErrorFallback(t *testing.T) {
	c := newTestCache(t)

	fetch := func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	}

	got, err := c.Fetch(context.Background(), Key("dashboard-tasks"), fetch, Options{
		Retry:         NoRetry,
		ErrorFallback: []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	res, ok := c.Peek(Key("dashboard-tasks"))
	require.True(t, ok)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{}, res.Data)
}

// TestStaleDataKeptOnError covers stale-while-revalidate: without a
// fallback, a failed refresh keeps the last successful data and sets Err.
func TestStaleDataKeptOnError(t *testing.T) {
	c := newTestCache(t)
	key := Key("agents")

	var call atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		if call.Add(1) == 1 {
			return "good", nil
		}
		return nil, errors.New("backend down")
	}

	_, err := c.Fetch(context.Background(), key, fetch, Options{})
	require.NoError(t, err)

	_, err = c.Refetch(context.Background(), key)
	require.Error(t, err)

	res, _ := c.Peek(key)
	assert.Equal(t, "good", res.Data, "last successful data survives a failed refresh")
	assert.Error(t, res.Err)
}

func TestRetryPolicyBackoff(t *testing.T) {
	tests := []struct {
		name    string
		policy  RetryPolicy
		attempt int
		want    time.Duration
	}{
		{name: "first retry", policy: RetryList, attempt: 1, want: time.Second},
		{name: "second retry doubles", policy: RetryList, attempt: 2, want: 2 * time.Second},
		{name: "capped at max", policy: RetryList, attempt: 10, want: 30 * time.Second},
		{name: "no retry has no delay", policy: NoRetry, attempt: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.delay(tt.attempt))
		})
	}
}

func TestRetryUntilSuccess(t *testing.T) {
	c := newTestCache(t)

	var call atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		if call.Add(1) < 3 {
			return nil, errors.New("flaky")
		}
		return "eventually", nil
	}

	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, BackoffFactor: 2}
	got, err := c.Fetch(context.Background(), Key("incidents"), fetch, Options{Retry: policy})
	require.NoError(t, err)
	assert.Equal(t, "eventually", got)
	assert.Equal(t, int32(3), call.Load())
}

func TestSubscriptionPolling(t *testing.T) {
	c := newTestCache(t)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}

	sub, err := c.Subscribe(Key("metrics"), fetch, Options{RefetchInterval: 20 * time.Millisecond})
	require.NoError(t, err)

	// Initial fetch plus at least two polls.
	deadline := time.After(2 * time.Second)
	seen := 0
	for seen < 3 {
		select {
		case res, ok := <-sub.Updates():
			require.True(t, ok)
			require.NoError(t, res.Err)
			seen++
		case <-deadline:
			t.Fatalf("saw %d updates before timeout", seen)
		}
	}

	sub.Close()
	settled := calls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), settled+1, "polling must stop after Close")
}

func TestMutationInvalidatesKeys(t *testing.T) {
	c := newTestCache(t)

	var taskFetches, summaryFetches atomic.Int32
	taskKey := NewKey("tasks")
	summaryKey := NewKey("workflow-summary", "wf-1")

	_, err := c.Fetch(context.Background(), taskKey, func(ctx context.Context) (any, error) {
		return int(taskFetches.Add(1)), nil
	}, Options{})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), summaryKey, func(ctx context.Context) (any, error) {
		return int(summaryFetches.Add(1)), nil
	}, Options{})
	require.NoError(t, err)

	m := c.NewMutation(taskKey, summaryKey)
	require.NoError(t, m.Mutate(context.Background(), func(ctx context.Context) error {
		return nil // mark-not-important succeeded
	}))

	// Both affected queries refetch.
	require.Eventually(t, func() bool {
		return taskFetches.Load() == 2 && summaryFetches.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMutationFailureDoesNotInvalidate(t *testing.T) {
	c := newTestCache(t)

	var fetches atomic.Int32
	key := NewKey("tasks")
	_, err := c.Fetch(context.Background(), key, func(ctx context.Context) (any, error) {
		return int(fetches.Add(1)), nil
	}, Options{})
	require.NoError(t, err)

	m := c.NewMutation(key)
	mutErr := m.Mutate(context.Background(), func(ctx context.Context) error {
		return errors.New("rejected")
	})
	require.Error(t, mutErr)
	assert.Error(t, m.Err())
	assert.False(t, m.IsPending())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fetches.Load())
}

func TestFetchAs(t *testing.T) {
	c := newTestCache(t)

	got, err := FetchAs(context.Background(), c, Key("typed"), func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestClosedCacheFailsFast(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.Close()

	_, err := c.Fetch(context.Background(), Key("x"), func(ctx context.Context) (any, error) {
		return nil, nil
	}, Options{})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = c.Subscribe(Key("x"), nil, Options{})
	assert.ErrorIs(t, err, ErrClosed)
}
