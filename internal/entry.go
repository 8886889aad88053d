// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/fehu/internal/api"
	"github.com/starford/fehu/internal/attrservice"
	"github.com/starford/fehu/internal/catalog"
	"github.com/starford/fehu/internal/entitystore"
	"github.com/starford/fehu/internal/mcpserver"
	"github.com/starford/fehu/internal/metastore"
	"github.com/starford/fehu/internal/sse"
)

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("entities_db", cfg.SQLite.EntitiesPath),
		slog.String("meta_db", cfg.SQLite.MetaPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker; entity saves and catalog reloads fan out to clients.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, cat, closeStores, err := buildServices(cfg,
		attrservice.WithSearchTimeout(cfg.Search.Timeout),
		attrservice.WithEventCallback(broker.PublishEntityEvent))
	if err != nil {
		return err
	}
	defer closeStores()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start catalog watcher with SSE callback.
	g.Go(func() error {
		return cat.Watch(gCtx, logger, broker.PublishCatalogReloaded)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server over the same stores and catalog.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Log to stderr; stdout carries the MCP protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, _, closeStores, err := buildServices(cfg,
		attrservice.WithSearchTimeout(cfg.Search.Timeout))
	if err != nil {
		return err
	}
	defer closeStores()

	logger.Info("Starting MCP server on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// buildServices opens the stores and catalog and assembles the core service.
func buildServices(cfg *Config, opts ...attrservice.Option) (*attrservice.Service, *catalog.Catalog, func(), error) {
	if err := os.MkdirAll(cfg.Catalog.Path, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create catalog dir: %w", err)
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load template catalog: %w", err)
	}

	entities, err := entitystore.Open(cfg.SQLite.EntitiesPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open entity store: %w", err)
	}

	meta, err := metastore.Open(cfg.SQLite.MetaPath)
	if err != nil {
		entities.Close()
		return nil, nil, nil, fmt.Errorf("open metadata store: %w", err)
	}

	svc := attrservice.New(entities, meta, cat, opts...)
	closeStores := func() {
		meta.Close()
		entities.Close()
	}
	return svc, cat, closeStores, nil
}
