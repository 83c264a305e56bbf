package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/store"
)

const seedLoadTimeout = 2 * time.Minute

type app struct {
	dashboard *services.Dashboard
	metrics   *observability.Metrics
	handler   http.Handler
}

// newApp wires the dataset service, routes and middleware chain.
func newApp(cfg *config.Config, logger *slog.Logger) *app {
	metrics := observability.NewMetrics()

	parser := ingest.NewParser(ingest.Options{
		MaxRows: cfg.Dataset.MaxRows,
		Workers: cfg.Dataset.ParseWorkers,
	}, logger)

	var snapshots *store.Snapshots
	if cfg.Dataset.CacheDir != "" {
		snapshots = store.NewSnapshots(cfg.Dataset.CacheDir)
	}

	dashboard := services.NewDashboard(store.New(cfg.Dataset.MaxDatasets), parser, snapshots, metrics, logger)
	srv := server.NewServer(dashboard, metrics, logger, cfg.Dataset.MaxUploadBytes)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.Metrics(metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return &app{
		dashboard: dashboard,
		metrics:   metrics,
		handler:   middlewareChain(srv),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"seed_file", cfg.Dataset.SeedFile,
		"max_datasets", cfg.Dataset.MaxDatasets,
	)

	a := newApp(cfg, logger)

	if cfg.Dataset.SeedFile != "" {
		ctx, cancel := context.WithTimeout(context.Background(), seedLoadTimeout)
		ds, err := a.dashboard.LoadSeed(ctx, cfg.Dataset.SeedFile)
		cancel()
		if err != nil {
			logger.Error("failed to load seed dataset", "path", cfg.Dataset.SeedFile, "error", err)
			os.Exit(1)
		}
		logger.Info("seed dataset ready", "dataset_id", ds.ID, "url", "/datasets/"+ds.ID)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down dashboard service", "stats", a.dashboard.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
