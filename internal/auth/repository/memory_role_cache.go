package repository

import (
	"context"
	"sync"
	"time"
)

const roleCacheCleanupInterval = time.Minute

// roleCacheItem holds a subject's assigned roles and their expiry.
type roleCacheItem struct {
	roles     []string
	expiresAt time.Time
}

// MemoryRoleCache implements RoleCache in process memory with per-subject
// TTLs. Safe for concurrent use; call Close to stop the cleanup goroutine.
type MemoryRoleCache struct {
	mu    sync.RWMutex
	items map[string]roleCacheItem

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryRoleCache creates a memory role cache and starts its cleanup
// goroutine.
func NewMemoryRoleCache() *MemoryRoleCache {
	cache := &MemoryRoleCache{
		items: make(map[string]roleCacheItem),
		done:  make(chan struct{}),
	}
	go cache.cleanupStale(roleCacheCleanupInterval)
	return cache
}

// Get returns the cached assigned roles for the subject.
func (c *MemoryRoleCache) Get(ctx context.Context, subject string) ([]string, bool, error) {
	c.mu.RLock()
	item, ok := c.items[subject]
	c.mu.RUnlock()

	if !ok || time.Now().After(item.expiresAt) {
		return nil, false, nil
	}

	return item.roles, true, nil
}

// Set stores the subject's assigned roles for ttl.
func (c *MemoryRoleCache) Set(ctx context.Context, subject string, roles []string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	c.items[subject] = roleCacheItem{roles: roles, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()

	return nil
}

// Delete removes the cached roles for the subject, if present.
func (c *MemoryRoleCache) Delete(ctx context.Context, subject string) error {
	c.mu.Lock()
	delete(c.items, subject)
	c.mu.Unlock()
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemoryRoleCache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *MemoryRoleCache) cleanupStale(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for subject, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, subject)
				}
			}
			c.mu.Unlock()
		}
	}
}
