package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool and pings it. Attempt n waits n*RetryInterval
// before the next one.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	connConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	if cfg.MaxOpenConns > 0 {
		connConfig.MaxConns = cfg.MaxOpenConns
	}
	connConfig.MinConns = cfg.MaxIdleConns
	if cfg.HealthCheckPeriod > 0 {
		connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.MaxConnIdleTime > 0 {
		connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		connConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	for i := range max(cfg.RetryAttempts, 1) {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToOpenDBConnection
}

// Healthcheck returns a ping closure for readiness probes.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
