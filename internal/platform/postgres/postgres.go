// Package postgres opens the connection pool and applies the embedded goose
// migrations.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"libri/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const pingTimeout = 2 * time.Second

// Open creates a pool for dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

var commands = map[string]func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error{
	"up":     goose.UpContext,
	"down":   goose.DownContext,
	"reset":  goose.ResetContext,
	"status": statusContext,
}

func statusContext(ctx context.Context, sqlDB *sql.DB, dir string, _ ...goose.OptionsFunc) error {
	return goose.StatusContext(ctx, sqlDB, dir)
}

// Migrate runs a goose command ("up", "down", "reset", "status") against the
// embedded migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, command string) error {
	run, ok := commands[command]
	if !ok {
		return fmt.Errorf("unknown migration command %q", command)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(db.Migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return run(ctx, sqlDB, db.MigrationsDir)
}
