package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations.
// goose keeps its settings in package state; do not run Migrate concurrently.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	// goose needs database/sql; the wrapper shares the pool's connections
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration handle", slog.Any("error", err))
		}
	}()

	table := cfg.MigrationsTable
	if table == "" {
		table = "tillkit_schema_migrations"
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{ctx: ctx, log: log})
	goose.SetTableName(table)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

// gooseLogger routes goose's Printf-style output to slog.
type gooseLogger struct {
	ctx context.Context
	log *slog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.log.ErrorContext(l.ctx, fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.InfoContext(l.ctx, fmt.Sprintf(format, v...))
}
