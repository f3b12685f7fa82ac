package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/task-api/internal/api"
	"github.com/phrazzld/task-api/internal/api/middleware"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/store"
)

// APIPrefix is the mount point of every versioned endpoint.
const APIPrefix = "/api/v1"

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.ErrorDetail(!app.config.Server.IsProduction()))
	r.Use(middleware.Metrics(app.metrics))
	r.Use(chimiddleware.Recoverer)

	authHandler := api.NewAuthHandler(app.userService)
	taskHandler := api.NewTaskHandler(app.taskService)
	adminHandler := api.NewAdminHandler(app.userService, app.taskService)
	authMiddleware := middleware.NewAuthMiddleware(app.jwtService, app.userService)

	r.Route(APIPrefix, func(r chi.Router) {
		if app.config.RateLimit.Enabled && app.counter != nil {
			limiter := middleware.NewRateLimiter(
				app.counter,
				app.config.RateLimit.MaxRequests,
				time.Duration(app.config.RateLimit.WindowSeconds)*time.Second,
				"api",
				app.metrics,
			)
			r.Use(limiter.Limit)
		}

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/me", authHandler.Me)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/{id}", taskHandler.Get)
				r.Put("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Post("/assign-task", adminHandler.AssignTask)
				r.Get("/users", adminHandler.ListUsers)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.HandleAPIError(w, r, store.ErrNotFound)
	})

	return r
}
