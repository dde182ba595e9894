// Package ratelimit implements per-key sliding-window admission control.
package ratelimit

import (
	"sync"
	"time"
)

// Config holds limiter configuration.
type Config struct {
	Max    int           // maximum admitted requests per window
	Window time.Duration // trailing window length
}

// Status is a non-mutating snapshot of one key's window, used to populate
// client-facing rate-limit headers.
type Status struct {
	Count      int           // requests currently inside the window
	Remaining  int           // admissions left before deny
	ResetAfter time.Duration // time until the oldest request leaves the window
}

// Limiter admits or denies requests per key based on how many requests the
// key made within the trailing window. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	now     func() time.Time
	entries map[string][]time.Time
}

// New creates a limiter with the given configuration.
func New(cfg Config) *Limiter {
	return NewWithClock(cfg, time.Now)
}

// NewWithClock creates a limiter with an injected clock for tests.
func NewWithClock(cfg Config, now func() time.Time) *Limiter {
	return &Limiter{
		cfg:     cfg,
		now:     now,
		entries: make(map[string][]time.Time),
	}
}

// prune drops timestamps that have fallen out of the window. Caller holds mu.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.cfg.Window)
	ts := l.entries[key]
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		ts = ts[i:]
		if len(ts) == 0 {
			delete(l.entries, key)
		} else {
			l.entries[key] = ts
		}
	}
	return ts
}

// Allow reports whether key may make another request. An admitted request is
// recorded; a denied one is not.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ts := l.prune(key, now)
	if len(ts) >= l.cfg.Max {
		return false
	}
	l.entries[key] = append(ts, now)
	return true
}

// GetStatus returns the current window state for key without recording a
// request.
func (l *Limiter) GetStatus(key string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ts := l.prune(key, now)

	st := Status{Count: len(ts), Remaining: l.cfg.Max - len(ts)}
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if len(ts) > 0 {
		st.ResetAfter = ts[0].Add(l.cfg.Window).Sub(now)
	}
	return st
}

// Limit returns the configured per-window maximum.
func (l *Limiter) Limit() int {
	return l.cfg.Max
}

// Sweep removes keys whose windows have emptied. It runs periodically from a
// scheduler task so that idle keys do not accumulate forever; request-path
// calls already prune the keys they touch.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key := range l.entries {
		if len(l.prune(key, now)) == 0 {
			removed++
		}
	}
	return removed
}
