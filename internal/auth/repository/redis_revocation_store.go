package repository

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

const revocationKeyPrefix = "gateway:revoked:"

// RedisRevocationStore implements RevocationStore on a shared Redis instance.
// A token revoked through any gateway replica is rejected by all replicas on
// their next check. Retention is enforced by Redis key TTLs.
type RedisRevocationStore struct {
	client *goredis.Client
}

// NewRedisRevocationStore creates a Redis-backed revocation store.
func NewRedisRevocationStore(client *goredis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// Add places the token digest on the blacklist for ttl.
func (s *RedisRevocationStore) Add(ctx context.Context, tokenDigest string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, revocationKeyPrefix+tokenDigest, "1", ttl).Err(); err != nil {
		return apperrors.Wrap(err, "failed to add token to blacklist")
	}

	return nil
}

// IsRevoked reports whether the token digest is on the blacklist.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenDigest string) (bool, error) {
	count, err := s.client.Exists(ctx, revocationKeyPrefix+tokenDigest).Result()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check token blacklist")
	}

	return count > 0, nil
}
