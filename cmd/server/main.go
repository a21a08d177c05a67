// SSB Prep - practice-content rotation server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/ssbprep/server/internal/api"
	"github.com/ssbprep/server/internal/catalog"
	"github.com/ssbprep/server/internal/catalog/bundle"
	"github.com/ssbprep/server/internal/config"
	"github.com/ssbprep/server/internal/identity"
	"github.com/ssbprep/server/internal/middleware"
	"github.com/ssbprep/server/internal/rotation"
	"github.com/ssbprep/server/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Content sources: the dynamic store wins, the bundled catalog is the
	// fallback when the store is empty or unreachable.
	sources := catalog.NewChain(cfg.StoreTimeout,
		catalog.NewDynamicSource(repo),
		catalog.NewStaticSource(bundle.FS()),
	)

	history := rotation.NewHistory(repo, cfg.StoreTimeout)
	selector := rotation.NewSelector(sources, history)
	recorder := rotation.NewRecorder(repo, history, cfg.StoreTimeout)

	// Initialize handlers.
	testHandler := api.NewTestHandler(selector, recorder, repo, cfg.MaxBatchSize)
	adminHandler := api.NewAdminHandler(repo, repo, cfg.AdminToken)
	healthHandler := api.NewHealthHandler(repo, cfg.StoreTimeout)

	if cfg.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN not set, admin endpoints are disabled")
	}

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(identity.Middleware())

	healthHandler.RegisterHealth(r)
	testHandler.RegisterRoutes(r)
	adminHandler.RegisterRoutes(r)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
