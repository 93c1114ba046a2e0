// Command dashboard serves the regional opportunity map: an embedded
// single-page UI plus a JSON API over the tract-profile scoring view, with
// health, readiness, and Prometheus metrics endpoints.
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

	"github.com/civicatlas/grant-atlas/internal/config"
	"github.com/civicatlas/grant-atlas/internal/dashboard"
	"github.com/civicatlas/grant-atlas/internal/observability"
	"github.com/civicatlas/grant-atlas/internal/store"
)

func main() {
	godotenv.Load() //nolint:errcheck // .env is optional

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if _, err := os.Stat(cfg.DBPath); err != nil {
		logger.Warn("database not found; run the etl command first", "path", cfg.DBPath)
	}

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	srv := dashboard.NewServer(cfg.HTTPAddr, st, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
