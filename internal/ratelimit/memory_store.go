package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count       int
	windowStart time.Time
}

// MemoryCounterStore keeps counters in process memory. Stale counters are
// reclaimed lazily when their key is touched again, and swept opportunistically
// once the map grows past a threshold.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

// NewMemoryCounterStore creates an in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

const sweepThreshold = 4096

// Bump implements CounterStore. The single mutex serializes read-modify-write
// per key, which is what makes the boundary count race-free.
func (s *MemoryCounterStore) Bump(_ context.Context, key string, max int, window time.Duration) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	c, ok := s.counters[key]
	if !ok || now.Sub(c.windowStart) >= window {
		s.counters[key] = &counter{count: 1, windowStart: now}
		if len(s.counters) > sweepThreshold {
			s.sweepLocked(now, window)
		}
		return 1, true, nil
	}

	if c.count >= max {
		return c.count, false, nil
	}

	c.count++
	return c.count, true, nil
}

func (s *MemoryCounterStore) sweepLocked(now time.Time, window time.Duration) {
	for key, c := range s.counters {
		if now.Sub(c.windowStart) >= window {
			delete(s.counters, key)
		}
	}
}
