package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiterCeiling(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	l := New(store, 15*time.Minute, 5)

	for i := 1; i <= 5; i++ {
		res := l.Admit(context.Background(), "1.2.3.4")
		if !res.Allowed {
			t.Fatalf("attempt %d rejected, want admitted", i)
		}
		if want := 5 - i; res.Remaining != want {
			t.Errorf("attempt %d remaining = %d, want %d", i, res.Remaining, want)
		}
	}
	res := l.Admit(context.Background(), "1.2.3.4")
	if res.Allowed {
		t.Fatal("6th attempt admitted, want rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", res.Remaining)
	}
	if res.RetryAfter != 15*time.Minute {
		t.Errorf("retry after = %v, want 15m", res.RetryAfter)
	}
}

func TestLimiterWindowReset(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	store.now = func() time.Time { return now }
	l := New(store, 15*time.Minute, 5)

	for i := 0; i < 6; i++ {
		l.Admit(context.Background(), "1.2.3.4")
	}
	// First attempt after the window elapses must be admitted again.
	now = base.Add(15*time.Minute + time.Second)
	res := l.Admit(context.Background(), "1.2.3.4")
	if !res.Allowed {
		t.Fatal("attempt after window reset rejected, want admitted")
	}
	if res.Remaining != 4 {
		t.Errorf("remaining after reset = %d, want 4", res.Remaining)
	}
}

func TestLimiterPartitionsByIdentity(t *testing.T) {
	store := NewMemoryStore()
	l := New(store, 15*time.Minute, 1)
	if res := l.Admit(context.Background(), "a"); !res.Allowed {
		t.Fatal("first identity rejected")
	}
	if res := l.Admit(context.Background(), "b"); !res.Allowed {
		t.Fatal("second identity must have its own window")
	}
	if res := l.Admit(context.Background(), "a"); res.Allowed {
		t.Fatal("first identity over ceiling must be rejected")
	}
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("store down")
}

func TestLimiterFailsOpen(t *testing.T) {
	l := New(failingStore{}, 15*time.Minute, 5)
	if res := l.Admit(context.Background(), "a"); !res.Allowed {
		t.Fatal("limiter must admit when the window store is unavailable")
	}
}

func TestLimiterDefaults(t *testing.T) {
	l := New(NewMemoryStore(), 0, 0)
	if l.window != 15*time.Minute || l.limit != 5 {
		t.Errorf("defaults = %v/%d, want 15m/5", l.window, l.limit)
	}
}
