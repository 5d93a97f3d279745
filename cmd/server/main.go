package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hrconsole/internal/app/server"
	"hrconsole/internal/platform/config"
	"hrconsole/internal/platform/db"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hrconsole",
		Short:         "HR console API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP API and background jobs", RunE: runServe},
		newMigrateCmd(),
		&cobra.Command{Use: "seed", Short: "Seed the default tenant, modules and roles", RunE: runSeed},
	)
	return root
}

func setup() config.Config {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))
	return cfg
}

func logLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := setup()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Serve(ctx)
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *db.Migrator) error { return m.Up(cmd.Context()) })
		},
	}
	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *db.Migrator) error { return m.Down(cmd.Context(), steps) })
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *db.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", v, dirty)
				return nil
			})
		},
	}
	cmd.AddCommand(down, version)
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(*db.Migrator) error) error {
	cfg := setup()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := db.Connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	m, err := db.NewMigrator(pool, cfg.MigrationsDir)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg := setup()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := db.Connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.Migrate(cmd.Context(), pool, cfg.MigrationsDir); err != nil {
		return err
	}
	return db.Seed(cmd.Context(), pool, cfg)
}
