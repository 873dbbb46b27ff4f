// Package postgres holds the connection, transaction and error plumbing
// shared by the PostgreSQL repositories.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marineevidence/combinedmap/internal/config"
)

// applicationName tags ingest sessions in pg_stat_activity.
const applicationName = "combinedmap"

// NewPool opens a pool for run persistence. Persistence is optional, so a
// DatabaseConfig without a DSN is rejected here rather than connecting to
// libpq defaults. The pool is pinged before it is returned.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("database: no DSN configured")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	poolCfg.MaxConns, poolCfg.MinConns = cfg.MaxConns, cfg.MinConns
	poolCfg.MaxConnLifetime, poolCfg.MaxConnIdleTime = cfg.MaxConnLifetime, cfg.MaxConnIdleTime
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
