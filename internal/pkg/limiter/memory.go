package limiter

import (
	"context"
	"sync"
	"time"
)

// windowEntry tracks one key's count and window expiry.
type windowEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is an in-process CounterStore. Suitable for single-instance
// deployments; multi-instance deployments should share counters via the
// Redis store instead.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryStore creates an in-memory counter store and starts a background
// sweep that drops expired windows.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}

	go s.sweep(3 * time.Minute)

	return s
}

// Incr implements CounterStore with a single lock around the read-modify-write,
// so concurrent increments for one key never lose updates.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(window)}
		s.entries[key] = entry
	}

	entry.count++

	return entry.count, entry.resetAt, nil
}

// sweep periodically removes entries whose window elapsed, bounding memory for
// one-off callers.
func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := s.now()

		s.mu.Lock()
		for key, entry := range s.entries {
			if now.After(entry.resetAt) {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}
