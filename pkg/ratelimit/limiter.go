// Package ratelimit enforces a minimum inter-request interval shared
// across every caller of a Client, synchronous or concurrent.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts wall-clock time so tests can exercise wait behavior
// deterministically. The zero value is not usable; use NewLimiter,
// which defaults to the real clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Limiter enforces acquire() blocking until at least 1/r has elapsed
// since the previous acquire() completed, across the whole process. A
// burst-1 token bucket gives exactly this contract: reservations are
// computed under the bucket's own mutex in call order, so waiters are
// served FIFO.
type Limiter struct {
	bucket *rate.Limiter
	clock  Clock
}

// NewLimiter builds a Limiter enforcing r requests per second.
func NewLimiter(r float64) *Limiter {
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(r), 1),
		clock:  realClock{},
	}
}

// WithClock overrides the clock used for wait-duration observability.
// It does not affect rate.Limiter's own internal timing, which always
// uses the real monotonic clock; it is provided so tests can label
// waits against a virtual timeline when combined with a fake
// transport.
func (l *Limiter) WithClock(c Clock) *Limiter {
	l.clock = c
	return l
}

// Acquire blocks until the next slot is available or ctx is canceled,
// and returns the duration actually waited.
func (l *Limiter) Acquire(ctx context.Context) (time.Duration, error) {
	start := l.clock.Now()
	if err := l.bucket.Wait(ctx); err != nil {
		return 0, err
	}
	return l.clock.Now().Sub(start), nil
}
