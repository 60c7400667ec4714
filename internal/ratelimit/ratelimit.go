// Package ratelimit spaces out external downloader invocations.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultCallsPerMinute is used when a non-positive rate is configured.
const DefaultCallsPerMinute = 30

// Limiter enforces a minimum interval between consecutive Acquire returns.
// The mutex is held across the elapsed check, the sleep and the stamp, so
// concurrent callers are admitted one at a time. All methods are safe for
// concurrent use.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New returns a limiter admitting at most callsPerMinute acquisitions per minute.
func New(callsPerMinute int) *Limiter {
	if callsPerMinute <= 0 {
		callsPerMinute = DefaultCallsPerMinute
	}
	return &Limiter{
		interval: time.Minute / time.Duration(callsPerMinute),
		now:      time.Now,
		after:    time.After,
	}
}

// Interval returns the minimum spacing between acquisitions.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Acquire blocks until the interval has elapsed since the previous Acquire
// returned, then records the new timestamp. The stamp is never rolled back,
// whatever happens to the call it guards. If ctx is cancelled while waiting,
// ctx.Err() is returned and no stamp is recorded.
func (l *Limiter) Acquire(ctx context.Context) (waited time.Duration, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := l.now()
	if !l.last.IsZero() {
		if remaining := l.interval - start.Sub(l.last); remaining > 0 {
			select {
			case <-ctx.Done():
				return l.now().Sub(start), ctx.Err()
			case <-l.after(remaining):
			}
		}
	}
	l.last = l.now()
	return l.last.Sub(start), nil
}
