package query

import (
	"time"
)

// RetryPolicy is a declarative description of fetch retry behavior, selected
// per call site rather than baked into the cache.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// BackoffFactor multiplies the delay after each attempt.
	BackoffFactor float64

	// MaxDelay caps the per-retry delay.
	MaxDelay time.Duration
}

// RetryList is the policy for list views the user navigated to
// intentionally: up to 3 attempts, exponential backoff from 1s doubling to a
// 30s cap. Passive dashboard widgets should use NoRetry with an
// ErrorFallback instead, since empty data is an acceptable default there.
var RetryList = RetryPolicy{
	MaxAttempts:   3,
	BaseDelay:     time.Second,
	BackoffFactor: 2,
	MaxDelay:      30 * time.Second,
}

// NoRetry performs a single attempt
var NoRetry = RetryPolicy{MaxAttempts: 1}

// attempts returns the normalized attempt budget
func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// delay returns the wait before retry number n (1-based)
func (p RetryPolicy) delay(n int) time.Duration {
	d := p.BaseDelay
	if d <= 0 {
		return 0
	}
	for i := 1; i < n; i++ {
		d = time.Duration(float64(d) * p.BackoffFactor)
		if p.MaxDelay > 0 && d > p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
