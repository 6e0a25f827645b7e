package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetox80/zstio-tv-sub000/internal/config"
	"github.com/meetox80/zstio-tv-sub000/internal/middleware"
)

const retryInterval = 2 * time.Second

// NewPool connects to Postgres with bounded retries. Pool sizing and the
// retry count come from configuration, same as the cooldown and token knobs.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pc.MaxConns = int32(cfg.DBMaxConns)
	pc.MinConns = int32(cfg.DBMinConns)
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 30 * time.Minute
	pc.HealthCheckPeriod = time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= cfg.DBConnectRetries; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, pc)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				middleware.Logger.Info().
					Int32("max_conns", pc.MaxConns).
					Int32("min_conns", pc.MinConns).
					Msg("database connected")
				return pool, nil
			} else {
				pool.Close()
				err = pingErr
			}
		}

		middleware.Logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", cfg.DBConnectRetries).
			Msg("database connection failed")
		if attempt < cfg.DBConnectRetries {
			time.Sleep(retryInterval)
		}
	}

	return nil, fmt.Errorf("database connection failed after %d attempts: %w", cfg.DBConnectRetries, err)
}
