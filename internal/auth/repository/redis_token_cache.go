package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/email-management-platform/backend/gateway/internal/auth/domain"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

const tokenCacheKeyPrefix = "gateway:token:"

// RedisTokenCache implements TokenCache on a shared Redis instance so every
// gateway replica sees the same validated-token entries and the same
// invalidations. Entry expiry is enforced by Redis key TTLs.
type RedisTokenCache struct {
	client *goredis.Client
}

// NewRedisTokenCache creates a Redis-backed token cache.
func NewRedisTokenCache(client *goredis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

// Get returns the cached entry for the token digest.
func (c *RedisTokenCache) Get(ctx context.Context, tokenDigest string) (*domain.CacheEntry, bool, error) {
	payload, err := c.client.Get(ctx, tokenCacheKeyPrefix+tokenDigest).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrap(err, "failed to get cached token")
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		// A corrupt entry is dropped rather than served.
		_ = c.client.Del(ctx, tokenCacheKeyPrefix+tokenDigest).Err()
		return nil, false, nil
	}

	return &entry, true, nil
}

// Set stores the entry under the token digest for ttl.
func (c *RedisTokenCache) Set(ctx context.Context, tokenDigest string, entry *domain.CacheEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode cache entry")
	}

	if err := c.client.Set(ctx, tokenCacheKeyPrefix+tokenDigest, payload, ttl).Err(); err != nil {
		return apperrors.Wrap(err, "failed to cache token")
	}

	return nil
}

// Delete removes the entry for the token digest.
func (c *RedisTokenCache) Delete(ctx context.Context, tokenDigest string) error {
	if err := c.client.Del(ctx, tokenCacheKeyPrefix+tokenDigest).Err(); err != nil {
		return apperrors.Wrap(err, "failed to delete cached token")
	}
	return nil
}
