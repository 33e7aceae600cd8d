// Package ratelimit implements the fixed-window throttle guarding the
// subscribe endpoint. Windows are aligned to each identity's first request,
// not a global clock tick.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// WindowStore counts hits per key within a fixed window. Incr returns the
// count after this hit and the time remaining until the window resets.
type WindowStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
}

// Result is the outcome of one admission check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int           // quota left in the current window
	RetryAfter time.Duration // time until the window resets
}

// Limiter admits up to Limit calls per identity per Window.
type Limiter struct {
	store  WindowStore
	window time.Duration
	limit  int
}

// New creates a Limiter. Non-positive arguments select the defaults
// (15 minutes, 5 calls).
func New(store WindowStore, window time.Duration, limit int) *Limiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if limit <= 0 {
		limit = 5
	}
	return &Limiter{store: store, window: window, limit: limit}
}

// Admit records one attempt for the identity and reports whether it is
// within quota. A store failure fails open: throttling is protection for the
// provider, not a correctness guarantee, so an unreachable store must not
// take the subscribe endpoint down with it.
func (l *Limiter) Admit(ctx context.Context, identity string) Result {
	count, remaining, err := l.store.Incr(ctx, identity, l.window)
	if err != nil {
		slog.Warn("ratelimit: window store unavailable, admitting", "identity", identity, "err", err)
		return Result{Allowed: true, Limit: l.limit, Remaining: l.limit - 1, RetryAfter: l.window}
	}
	left := l.limit - int(count)
	if left < 0 {
		left = 0
	}
	return Result{
		Allowed:    count <= int64(l.limit),
		Limit:      l.limit,
		Remaining:  left,
		RetryAfter: remaining,
	}
}
