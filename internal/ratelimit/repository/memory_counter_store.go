// Package repository provides fixed-window counter stores for rate limiting.
package repository

import (
	"context"
	"sync"
	"time"
)

const counterCleanupInterval = time.Minute

// counterEntry is one live fixed-window counter.
type counterEntry struct {
	count     int64
	windowEnd time.Time
}

// MemoryCounterStore implements CounterStore in process memory. Suitable for
// single-instance deployments; multi-instance deployments need the Redis
// store so all instances count against the same ceiling.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*counterEntry

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCounterStore creates a memory counter store and starts its cleanup
// goroutine. Call Close to stop the goroutine.
func NewMemoryCounterStore() *MemoryCounterStore {
	store := &MemoryCounterStore{
		counters: make(map[string]*counterEntry),
		done:     make(chan struct{}),
	}
	go store.cleanupStale(counterCleanupInterval)
	return store
}

// Incr counts one request against the key's current window and returns the
// post-increment count with the time left until the window resets. A key
// whose window has lapsed restarts at one. The increment and the comparison
// against the returned count happen under a single lock acquisition here, so
// two concurrent requests always observe distinct counts.
func (s *MemoryCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.counters[key]
	if !ok || !now.Before(entry.windowEnd) {
		entry = &counterEntry{count: 0, windowEnd: now.Add(window)}
		s.counters[key] = entry
	}

	entry.count++
	return entry.count, entry.windowEnd.Sub(now), nil
}

// Close stops the cleanup goroutine.
func (s *MemoryCounterStore) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Len returns the number of live counters, counting lapsed windows that have
// not been swept yet.
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

// cleanupStale removes lapsed counters periodically so one-off client keys do
// not accumulate forever.
func (s *MemoryCounterStore) cleanupStale(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.counters {
				if now.After(entry.windowEnd) {
					delete(s.counters, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
