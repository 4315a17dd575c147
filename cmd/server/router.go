package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stickyasks/stickyasks-api/internal/api"
	apiMiddleware "github.com/stickyasks/stickyasks-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	requestHandler := api.NewRequestHandler(app.requestService)
	taskHandler := api.NewTaskHandler(app.taskService)
	profileHandler := api.NewProfileHandler(app.directoryService)
	identityMiddleware := apiMiddleware.NewIdentityMiddleware(app.config.Auth.DevJWTSecret)

	// Register routes; every /api route requires a resolved identity
	r.Route("/api", func(r chi.Router) {
		r.Use(identityMiddleware.Authenticate)

		// Request endpoints
		r.Post("/requests", requestHandler.Create)
		r.Post("/requests/close", requestHandler.Close)
		r.Get("/requests", requestHandler.ListReceived)
		r.Get("/requests/sent", requestHandler.ListSent)

		// Task endpoints
		r.Get("/tasks", taskHandler.List)
		r.Post("/tasks/start", taskHandler.Start)
		r.Post("/tasks/complete", taskHandler.Complete)
		r.Get("/stats", taskHandler.Stats)

		// Profile endpoints
		r.Get("/profile", profileHandler.Get)
		r.Post("/profile", profileHandler.Update)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
