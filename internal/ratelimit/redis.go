package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps windows in Redis so multiple replicas share quota.
// Keys live as "ratelimit:subscribe:<identity>" with a TTL equal to the
// window; the window opens on the identity's first INCR.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed window store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func windowKey(identity string) string {
	return fmt.Sprintf("ratelimit:subscribe:%s", identity)
}

// Incr counts one hit for key. The first hit in a window sets the TTL; a key
// found without a TTL (e.g., after an interrupted first hit) gets one so the
// window can never become permanent.
func (s *RedisStore) Incr(ctx context.Context, key string, windowLen time.Duration) (int64, time.Duration, error) {
	k := windowKey(key)
	count, err := s.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, k, windowLen).Err(); err != nil {
			return count, windowLen, err
		}
		return count, windowLen, nil
	}
	ttl, err := s.rdb.TTL(ctx, k).Result()
	if err != nil {
		return count, windowLen, err
	}
	if ttl < 0 {
		if err := s.rdb.Expire(ctx, k, windowLen).Err(); err != nil {
			return count, windowLen, err
		}
		ttl = windowLen
	}
	return count, ttl, nil
}
