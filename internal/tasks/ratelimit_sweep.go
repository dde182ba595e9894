// Package tasks holds the scheduled background tasks.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/ratelimit"
)

// RateLimitSweep periodically drops rate-limiter keys whose windows have
// emptied, so one-off clients don't accumulate in the map forever. The sweep
// holds the limiter lock only briefly and never blocks request-path checks
// for long.
type RateLimitSweep struct {
	name     string
	limiter  *ratelimit.Limiter
	interval time.Duration
}

// NewRateLimitSweep creates a sweep task for one limiter. name distinguishes
// the limiters in logs.
func NewRateLimitSweep(name string, limiter *ratelimit.Limiter, interval time.Duration) *RateLimitSweep {
	return &RateLimitSweep{
		name:     name,
		limiter:  limiter,
		interval: interval,
	}
}

// Run implements scheduler.Task.
func (t *RateLimitSweep) Run(_ context.Context) error {
	removed := t.limiter.Sweep()
	if removed > 0 {
		slog.Debug("Swept idle rate-limiter keys", "limiter", t.name, "removed", removed)
	}
	return nil
}

// Interval implements scheduler.Task.
func (t *RateLimitSweep) Interval() time.Duration { return t.interval }

// Name implements scheduler.Task.
func (t *RateLimitSweep) Name() string { return "ratelimit_sweep_" + t.name }
