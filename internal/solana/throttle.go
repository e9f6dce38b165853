package solana

import (
	"context"
	"sync"
	"time"
)

// intervalLimiter enforces a minimum spacing between outbound RPC calls.
// It is a client-side politeness control for rate-limited providers, not
// a fairness or backpressure mechanism across processes.
type intervalLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
}

func newIntervalLimiter(minInterval time.Duration) *intervalLimiter {
	return &intervalLimiter{minInterval: minInterval}
}

// Wait blocks until minInterval has elapsed since the previous call
// or the context is cancelled.
func (l *intervalLimiter) Wait(ctx context.Context) error {
	if l == nil || l.minInterval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	wait := l.minInterval - now.Sub(l.last)
	if wait <= 0 {
		l.last = now
		l.mu.Unlock()
		return ctx.Err()
	}
	// Reserve the slot before sleeping so concurrent callers queue up
	// rather than all firing at the same boundary.
	l.last = now.Add(wait)
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
