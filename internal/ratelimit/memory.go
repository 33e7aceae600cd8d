package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory. A restart clears all windows;
// that is the accepted trade-off for the default deployment.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window

	now func() time.Time // overridable in tests
}

type window struct {
	count   int64
	expires time.Time
}

// NewMemoryStore creates an empty in-process window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Incr counts one hit for key, opening a fresh window when none is active.
// Expired windows are dropped lazily on the next hit for their key.
func (s *MemoryStore) Incr(_ context.Context, key string, windowLen time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &window{expires: now.Add(windowLen)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.expires.Sub(now), nil
}
