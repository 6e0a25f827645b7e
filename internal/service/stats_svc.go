package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter kinds accepted by the statistics sink.
const (
	StatRequest = "request"
	StatPlay    = "play"
)

// statsTTL keeps daily counters around long enough for the dashboard's
// monthly view, then lets them expire.
const statsTTL = 40 * 24 * time.Hour

// StatsService maintains per-day counters in Redis. It is a fire-and-forget
// sink: callers never wait on it and its failures never propagate. With no
// Redis client every call is a no-op.
type StatsService struct {
	rdb *redis.Client
}

func NewStatsService(rdb *redis.Client) *StatsService {
	return &StatsService{rdb: rdb}
}

// IncrementCounter bumps today's counter for the given kind in the
// background. Errors are logged and swallowed.
func (s *StatsService) IncrementCounter(kind string) {
	if s.rdb == nil {
		return
	}

	key := statsKey(kind, time.Now().UTC())
	// The goroutine may outlive the shared client during shutdown; a
	// closed client fails the increment, which is logged like any other.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		n, err := s.rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("stats: increment %s failed: %v", key, err)
			return
		}
		if n == 1 {
			if err := s.rdb.Expire(ctx, key, statsTTL).Err(); err != nil {
				log.Printf("stats: expire %s failed: %v", key, err)
			}
		}
	}()
}

func statsKey(kind string, day time.Time) string {
	return fmt.Sprintf("stats:%s:%s", kind, day.Format("2006-01-02"))
}
