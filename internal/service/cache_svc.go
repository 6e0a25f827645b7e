package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// songListTTL bounds staleness of the approved-catalog listing between
// invalidations.
const songListTTL = time.Minute

// CacheService provides a Redis cache-aside layer for approved-catalog
// listings. If redisURL is empty or the connection fails it degrades to a
// nil client and every operation becomes a no-op.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService connects to Redis. On any failure caching is disabled
// rather than blocking startup.
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Println("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("redis: invalid URL %q, caching disabled: %v", redisURL, err)
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: connection failed, caching disabled: %v", err)
		return &CacheService{}
	}

	log.Println("redis: connected")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (rate limiter, stats, health
// checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetSongList retrieves a cached catalog page. Returns nil when not cached
// or caching is disabled.
func (c *CacheService) GetSongList(ctx context.Context, page, limit int) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, songListKey(page, limit)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetSongList stores a catalog page.
func (c *CacheService) SetSongList(ctx context.Context, page, limit int, data any) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, songListKey(page, limit), b, songListTTL).Err()
}

// InvalidateSongLists drops every cached catalog page. Called after any
// vote, approval or rejection.
func (c *CacheService) InvalidateSongLists(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, songListPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

const songListPrefix = "songs:list:"

func songListKey(page, limit int) string {
	return fmt.Sprintf("%s%d:%d", songListPrefix, page, limit)
}
