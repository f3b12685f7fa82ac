package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/task-api/internal/api/middleware"
	"github.com/phrazzld/task-api/internal/config"
	"github.com/phrazzld/task-api/internal/platform/cache"
	"github.com/phrazzld/task-api/internal/platform/metrics"
	"github.com/phrazzld/task-api/internal/platform/postgres"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config

	logger  *slog.Logger
	db      *sql.DB
	cache   cache.Cache
	counter middleware.WindowCounter
	metrics *metrics.Metrics

	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService
}

// newApplication wires the production dependencies around an open database
// pool and Redis client. The application owns both from here on and closes
// them in cleanup.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	redisClient redis.UniversalClient,
) (*application, error) {
	m := metrics.New()
	redisCache := cache.NewRedisCache(redisClient, "", m)
	return buildApplication(cfg, logger, db, redisCache, redisCache, m)
}

// buildApplication creates the stores and services. The cache and rate limit
// counter are passed separately so tests can substitute in-memory versions.
func buildApplication(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	taskCache cache.Cache,
	counter middleware.WindowCounter,
	m *metrics.Metrics,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		cache:   taskCache,
		counter: counter,
		metrics: m,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	userStore := postgres.NewPostgresUserStore(db)
	taskStore := postgres.NewPostgresTaskStore(db)

	app.userService = service.NewUserService(
		userStore,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		app.jwtService,
		logger.With("component", "user_service"),
	)
	app.taskService = service.NewTaskService(
		taskStore,
		userStore,
		db,
		taskCache,
		service.TaskServiceConfig{
			ListTTL:      time.Duration(cfg.Cache.TaskListTTLSeconds) * time.Second,
			MaxPageLimit: cfg.Cache.MaxPageLimit,
		},
		logger.With("component", "task_service"),
	)

	logger.Info("application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the database pool and the Redis connection.
func (app *application) cleanup() {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing cache connection", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
