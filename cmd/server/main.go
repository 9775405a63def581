package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"csvaudit/internal/config"
	"csvaudit/internal/logging"
	"csvaudit/internal/metrics"
	"csvaudit/internal/metrics/datadog"
	"csvaudit/internal/quality"
	"csvaudit/internal/storage"
	"csvaudit/internal/web"

	// Register storage backends.
	_ "csvaudit/internal/storage/mssql"
	_ "csvaudit/internal/storage/postgres"
	_ "csvaudit/internal/storage/sqlite"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage_kind", cfg.Storage.Kind,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	ctx := context.Background()

	repo, err := storage.New(ctx, storage.Config{
		Kind: cfg.Storage.Kind,
		DSN:  cfg.Storage.DSN,
	})
	if err != nil {
		slog.Error("failed to open report store", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("report store ready", "kind", cfg.Storage.Kind)

	var ddBackend *datadog.Backend
	if cfg.Metrics.Enabled {
		ddBackend, err = datadog.NewBackend(ctx, datadog.Options{
			JobName:    cfg.Metrics.JobName,
			Tags:       datadog.ParseTagsCSV(cfg.Metrics.Tags),
			FlushEvery: cfg.Metrics.FlushEvery,
		})
		if err != nil {
			slog.Error("failed to start metrics backend", "error", err)
			os.Exit(1)
		}
		metrics.SetBackend(ddBackend)
		slog.Info("metrics backend started", "job", cfg.Metrics.JobName)
	}

	engine := quality.New(quality.DefaultRuleSet())
	server := web.NewServer(cfg, engine, repo)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if ddBackend != nil {
			if err := ddBackend.Close(); err != nil {
				slog.Warn("final metrics flush failed", "error", err)
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
