package repository

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/email-management-platform/backend/gateway/internal/auth/domain"
)

// tokenCacheItem is a single LRU entry. The list element value points back
// to the item so eviction can remove the map key.
type tokenCacheItem struct {
	digest    string
	entry     *domain.CacheEntry
	expiresAt time.Time
}

// MemoryTokenCache implements TokenCache as an in-process bounded LRU map.
// Entries expire individually, and the least recently used entry is evicted
// once the configured capacity is reached. Safe for concurrent use.
type MemoryTokenCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	items    map[string]*list.Element
}

// NewMemoryTokenCache creates a MemoryTokenCache bounded to capacity entries.
func NewMemoryTokenCache(capacity int) *MemoryTokenCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryTokenCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached entry for the token digest. Expired entries are
// removed and reported as a miss.
func (c *MemoryTokenCache) Get(ctx context.Context, tokenDigest string) (*domain.CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[tokenDigest]
	if !ok {
		return nil, false, nil
	}

	item := element.Value.(*tokenCacheItem)
	if time.Now().After(item.expiresAt) {
		c.removeElement(element)
		return nil, false, nil
	}

	c.order.MoveToFront(element)
	return item.entry, true, nil
}

// Set stores the entry under the token digest for ttl. A non-positive ttl
// means the entry would already be expired, so nothing is stored.
func (c *MemoryTokenCache) Set(ctx context.Context, tokenDigest string, entry *domain.CacheEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.items[tokenDigest]; ok {
		item := element.Value.(*tokenCacheItem)
		item.entry = entry
		item.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(element)
		return nil
	}

	element := c.order.PushFront(&tokenCacheItem{
		digest:    tokenDigest,
		entry:     entry,
		expiresAt: time.Now().Add(ttl),
	})
	c.items[tokenDigest] = element

	if c.order.Len() > c.capacity {
		c.removeElement(c.order.Back())
	}

	return nil
}

// Delete removes the entry for the token digest, if present.
func (c *MemoryTokenCache) Delete(ctx context.Context, tokenDigest string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.items[tokenDigest]; ok {
		c.removeElement(element)
	}
	return nil
}

// Len returns the number of held entries, counting expired entries that have
// not been touched since expiring.
func (c *MemoryTokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *MemoryTokenCache) removeElement(element *list.Element) {
	item := element.Value.(*tokenCacheItem)
	c.order.Remove(element)
	delete(c.items, item.digest)
}
