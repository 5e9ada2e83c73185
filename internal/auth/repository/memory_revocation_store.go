package repository

import (
	"context"
	"sync"
	"time"
)

const revocationCleanupInterval = time.Minute

// MemoryRevocationStore implements RevocationStore in process memory.
// Suitable for single-instance deployments; multi-instance deployments need
// the Redis store so a revocation on one instance blocks the token on all.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // token digest -> blacklist expiry

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryRevocationStore creates a memory revocation store and starts its
// cleanup goroutine. Call Close to stop the goroutine.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	store := &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		done:    make(chan struct{}),
	}
	go store.cleanupStale(revocationCleanupInterval)
	return store
}

// Add places the token digest on the blacklist for ttl.
func (s *MemoryRevocationStore) Add(ctx context.Context, tokenDigest string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	s.entries[tokenDigest] = time.Now().Add(ttl)
	s.mu.Unlock()

	return nil
}

// IsRevoked reports whether the token digest is on the blacklist.
func (s *MemoryRevocationStore) IsRevoked(ctx context.Context, tokenDigest string) (bool, error) {
	s.mu.RLock()
	expiresAt, ok := s.entries[tokenDigest]
	s.mu.RUnlock()

	return ok && time.Now().Before(expiresAt), nil
}

// Close stops the cleanup goroutine.
func (s *MemoryRevocationStore) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// cleanupStale removes expired digests periodically to prevent unbounded
// memory growth over the retention window.
func (s *MemoryRevocationStore) cleanupStale(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for digest, expiresAt := range s.entries {
				if now.After(expiresAt) {
					delete(s.entries, digest)
				}
			}
			s.mu.Unlock()
		}
	}
}
