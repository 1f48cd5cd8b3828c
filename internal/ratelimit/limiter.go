// Package ratelimit guards the login endpoint against brute-force PIN guessing.
// It keeps, per client address, the timestamps of recent attempts inside a
// sliding window: an attempt is blocked once more than `limit` attempts land
// within the trailing `window`. Every attempt is recorded — including blocked
// ones — so hammering keeps the window hot.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is the single entry point callers see. Implementations can be
// swapped (in-memory vs shared store) without touching the login flow.
type Limiter interface {
	// CheckAndRecord registers an attempt for addr and reports whether it is
	// admitted. The error is non-nil only when the backing store failed.
	CheckAndRecord(ctx context.Context, addr string) (bool, error)
}

// Clock is injected so tests can drive time.
type Clock func() time.Time

// MemoryLimiter tracks attempts in a per-process map. Under multi-process
// deployments it degrades to approximate per-process limiting; use
// RedisLimiter for a shared window.
type MemoryLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
	now      Clock
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return NewMemoryLimiterWithClock(limit, window, time.Now)
}

func NewMemoryLimiterWithClock(limit int, window time.Duration, now Clock) *MemoryLimiter {
	return &MemoryLimiter{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      now,
	}
}

func (l *MemoryLimiter) CheckAndRecord(_ context.Context, addr string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.attempts[addr][:0]
	for _, t := range l.attempts[addr] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	l.attempts[addr] = kept

	return len(kept) <= l.limit, nil
}

// StartPurge launches a goroutine that drops addresses whose attempts have all
// aged out of the window, so one-off clients don't accumulate forever.
func (l *MemoryLimiter) StartPurge(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.purge()
			}
		}
	}()
}

func (l *MemoryLimiter) purge() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for addr, ts := range l.attempts {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(l.attempts, addr)
		}
	}
}
