// Package ratelimit implements per-identifier sliding-window admission
// control for the HTTP layer.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the verdict for a single admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per identifier within a trailing window.
// State is process-local; nothing survives a restart.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string][]time.Time
	lastSweep time.Time
}

func New(limit int, window time.Duration) *Limiter {
	return NewWithClock(limit, window, time.Now)
}

// NewWithClock takes an explicit clock so tests can drive time.
func NewWithClock(limit int, window time.Duration, now func() time.Time) *Limiter {
	return &Limiter{
		limit:     limit,
		window:    window,
		now:       now,
		windows:   make(map[string][]time.Time),
		lastSweep: now(),
	}
}

func (l *Limiter) Limit() int { return l.limit }

func (l *Limiter) Window() time.Duration { return l.window }

// Check admits or rejects one request attributed to identifier. Timestamps
// exactly window-old are expired (strict comparison). Admitted requests
// record the current time; rejected requests record nothing.
func (l *Limiter) Check(identifier string) Decision {
	now := l.now()
	windowStart := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(windowStart)
		l.lastSweep = now
	}

	recorded := l.windows[identifier]
	kept := recorded[:0]
	for _, ts := range recorded {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}

	resetAt := now.Add(l.window)

	if len(kept) >= l.limit {
		l.windows[identifier] = kept
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	remaining := l.limit - len(kept) - 1
	l.windows[identifier] = append(kept, now)
	return Decision{Allowed: true, Remaining: remaining, ResetAt: resetAt}
}

// sweep drops identifiers whose every recorded timestamp has expired,
// bounding map growth from identifiers that stopped sending. Caller holds
// the lock.
func (l *Limiter) sweep(windowStart time.Time) {
	for id, recorded := range l.windows {
		live := false
		for _, ts := range recorded {
			if ts.After(windowStart) {
				live = true
				break
			}
		}
		if !live {
			delete(l.windows, id)
		}
	}
}

// TrackedIdentifiers reports how many identifiers currently hold state.
func (l *Limiter) TrackedIdentifiers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
