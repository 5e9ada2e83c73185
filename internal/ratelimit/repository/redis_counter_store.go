package repository

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

const counterKeyPrefix = "gateway:ratelimit:"

// counterIncrScript increments a fixed-window counter and returns the
// post-increment count with the window's remaining lifetime in milliseconds.
// The first increment arms the window TTL; the PTTL guard re-arms it if an
// expiry was lost (for example a script interrupted between INCR and
// PEXPIRE), so no counter can survive past its window.
var counterIncrScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisCounterStore implements CounterStore on a shared Redis instance so
// every gateway replica counts against the same per-client ceilings. Window
// expiry is enforced by Redis key TTLs.
type RedisCounterStore struct {
	client *goredis.Client
}

// NewRedisCounterStore creates a Redis-backed counter store.
func NewRedisCounterStore(client *goredis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

// Incr counts one request against the key's current window and returns the
// post-increment count with the time left until the window resets. The
// increment and TTL handling run as one Lua script, so concurrent requests
// always observe distinct counts no matter which replica serves them.
func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	result, err := counterIncrScript.Run(ctx, s.client,
		[]string{counterKeyPrefix + key},
		window.Milliseconds(),
	).Slice()
	if err != nil {
		return 0, 0, apperrors.Wrap(err, "failed to increment rate limit counter")
	}
	if len(result) != 2 {
		return 0, 0, apperrors.New("unexpected rate limit script reply shape")
	}

	count, ok := result[0].(int64)
	if !ok {
		return 0, 0, apperrors.New("unexpected rate limit script count type")
	}
	ttlMillis, ok := result[1].(int64)
	if !ok {
		return 0, 0, apperrors.New("unexpected rate limit script ttl type")
	}

	return count, time.Duration(ttlMillis) * time.Millisecond, nil
}
