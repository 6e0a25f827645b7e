package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists the timestamp of the last allowed action per key. The
// limiter keeps exactly one slot per key, so a Store is a string->time map
// with per-entry expiry.
type Store interface {
	// Claim takes key's slot atomically, recording t as the last allowed
	// action with the given ttl. Returns false when the slot is already
	// held, so of two concurrent claims on a free key exactly one wins.
	Claim(ctx context.Context, key string, t time.Time, ttl time.Duration) (bool, error)
	// Last returns the recorded timestamp for key and whether one exists.
	Last(ctx context.Context, key string) (time.Time, bool, error)
}

const redisKeyPrefix = "cooldown:"

// RedisStore is the shared limiter store. Keys expire with their window so
// stale entries self-evict; all process instances observe the same state.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Claim(ctx context.Context, key string, t time.Time, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, redisKeyPrefix+key, t.UnixMilli(), ttl).Result()
}

func (s *RedisStore) Last(ctx context.Context, key string) (time.Time, bool, error) {
	ms, err := s.rdb.Get(ctx, redisKeyPrefix+key).Int64()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}
