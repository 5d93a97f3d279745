package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"hrconsole/internal/platform/config"
)

func Connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Migrator runs the NNNN_name.{up,down}.sql files in a directory against the
// pool, tracking progress in schema_migrations.
type Migrator struct {
	m *migrate.Migrate
}

func NewMigrator(pool *pgxpool.Pool, migrationsDir string) (*Migrator, error) {
	dir, err := filepath.Abs(migrationsDir)
	if err != nil {
		return nil, err
	}
	driver, err := pgxmigrate.WithInstance(stdlib.OpenDBFromPool(pool), &pgxmigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(dir), "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("migration source %s: %w", dir, err)
	}
	m.Log = migrateLogger{}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration. It stops after the current file when
// ctx is cancelled.
func (g *Migrator) Up(ctx context.Context) error {
	return g.run(ctx, g.m.Up)
}

// Down rolls back steps migrations.
func (g *Migrator) Down(ctx context.Context, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	return g.run(ctx, func() error { return g.m.Steps(-steps) })
}

// Version reports the applied version; 0 means none. A dirty version needs
// manual repair before migrating again.
func (g *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (g *Migrator) run(ctx context.Context, step func() error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			g.m.GracefulStop <- true
		case <-done:
		}
	}()
	if err := step(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Migrate applies pending migrations from migrationsDir.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrationsDir string) error {
	g, err := NewMigrator(pool, migrationsDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Close(); err != nil {
			slog.Warn("migrator close failed", "err", err)
		}
	}()
	if err := g.Up(ctx); err != nil {
		return err
	}
	version, _, err := g.Version()
	if err == nil {
		slog.Info("schema up to date", "version", version)
	}
	return nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	slog.Info("migration", "msg", fmt.Sprintf(format, v...))
}

func (migrateLogger) Verbose() bool { return false }
