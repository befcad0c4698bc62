package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyunwoojo/gilro/internal/pkg/config"
)

// DB wraps pgxpool.Pool and provides a shared connection pool. The trip
// archive is the only consumer, so the configured pool stays small.
type DB struct {
	Pool *pgxpool.Pool
}

// New opens a connection pool sized from the database configuration and
// verifies connectivity before returning.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns = int32(cfg.MaxConns)
	pc.MaxConnLifetime = time.Duration(cfg.ConnLifetimeMins) * time.Minute
	pc.MaxConnIdleTime = 5 * time.Minute
	return pc, nil
}

// Close releases pool resources.
func (db *DB) Close() {
	db.Pool.Close()
}
