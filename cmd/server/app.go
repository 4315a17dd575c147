package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/stickyasks/stickyasks-api/internal/config"
	"github.com/stickyasks/stickyasks-api/internal/platform/cache"
	"github.com/stickyasks/stickyasks-api/internal/platform/email"
	"github.com/stickyasks/stickyasks-api/internal/platform/postgres"
	"github.com/stickyasks/stickyasks-api/internal/service"
	"github.com/stickyasks/stickyasks-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore    store.UserStore
	requestStore store.RequestStore
	taskStore    store.TaskStore

	// Platform services
	notifier   email.Notifier
	statsCache cache.StatsCache

	// Service interfaces
	directoryService service.DirectoryService
	requestService   service.RequestService
	taskService      service.TaskService
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger,
// and database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.requestStore = postgres.NewPostgresRequestStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	// Initialize the notification dispatcher; a no-op when the email
	// feature flag is off.
	app.notifier = email.NewNotifier(cfg.Email, logger)

	// Initialize the stats cache; a no-op when no Redis URL is configured.
	var err error
	app.statsCache, err = cache.NewStatsCache(cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stats cache: %w", err)
	}

	// Initialize services
	app.directoryService, err = service.NewDirectoryService(app.userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory service: %w", err)
	}

	app.requestService, err = service.NewRequestService(
		db,
		app.userStore,
		app.requestStore,
		app.taskStore,
		app.notifier,
		app.statsCache,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request service: %w", err)
	}

	app.taskService, err = service.NewTaskService(
		app.requestStore,
		app.taskStore,
		app.notifier,
		app.statsCache,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if closer, ok := app.statsCache.(*cache.RedisStatsCache); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error("error closing stats cache", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
