// Package main implements the entry point for the task API server: a JSON
// REST service for user accounts and per-user task lists backed by Postgres
// and Redis.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/task-api/internal/config"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/platform/postgres"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (default: ./config.yaml if present)")
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply pending migrations at startup")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *migrateCmd, *skipMigrations); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, connects to Postgres and Redis, then either runs a
// single migration command or serves HTTP until ctx is cancelled.
func run(ctx context.Context, configFile, migrateCmd string, skipMigrations bool) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"environment", cfg.Server.Environment)

	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer closeDB(db, log)
		return postgres.Migrate(ctx, db, migrateCmd, log)
	}
	if !skipMigrations {
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, log); err != nil {
			closeDB(db, log)
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	redisClient, err := setupRedis(ctx, cfg.Cache, log)
	if err != nil {
		closeDB(db, log)
		return err
	}

	app, err := newApplication(cfg, log, db, redisClient)
	if err != nil {
		closeDB(db, log)
		_ = redisClient.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
