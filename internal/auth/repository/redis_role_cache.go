package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

const roleCacheKeyPrefix = "gateway:roles:"

// RedisRoleCache implements RoleCache on a shared Redis instance so all
// gateway replicas reuse the same subject role lookups.
type RedisRoleCache struct {
	client *goredis.Client
}

// NewRedisRoleCache creates a Redis-backed role cache.
func NewRedisRoleCache(client *goredis.Client) *RedisRoleCache {
	return &RedisRoleCache{client: client}
}

// Get returns the cached assigned roles for the subject.
func (c *RedisRoleCache) Get(ctx context.Context, subject string) ([]string, bool, error) {
	payload, err := c.client.Get(ctx, roleCacheKeyPrefix+subject).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrap(err, "failed to get cached roles")
	}

	var roles []string
	if err := json.Unmarshal(payload, &roles); err != nil {
		_ = c.client.Del(ctx, roleCacheKeyPrefix+subject).Err()
		return nil, false, nil
	}

	return roles, true, nil
}

// Set stores the subject's assigned roles for ttl.
func (c *RedisRoleCache) Set(ctx context.Context, subject string, roles []string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode roles")
	}

	if err := c.client.Set(ctx, roleCacheKeyPrefix+subject, payload, ttl).Err(); err != nil {
		return apperrors.Wrap(err, "failed to cache roles")
	}

	return nil
}

// Delete removes the cached roles for the subject.
func (c *RedisRoleCache) Delete(ctx context.Context, subject string) error {
	if err := c.client.Del(ctx, roleCacheKeyPrefix+subject).Err(); err != nil {
		return apperrors.Wrap(err, "failed to delete cached roles")
	}
	return nil
}
