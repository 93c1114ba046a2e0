// Command etl performs one fetch-merge-load run: tract boundaries from
// TIGERweb, demographics from the ACS Data Profile API, SVI scores from a
// local CDC CSV, plus simulated assets, written to a fresh SQLite database.
//
// The run is intended for manual, supervised invocation. Any failure aborts
// with a non-zero exit and leaves no partial data behind.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/civicatlas/grant-atlas/internal/adapter/census"
	"github.com/civicatlas/grant-atlas/internal/adapter/svi"
	"github.com/civicatlas/grant-atlas/internal/adapter/tiger"
	"github.com/civicatlas/grant-atlas/internal/config"
	"github.com/civicatlas/grant-atlas/internal/domain"
	"github.com/civicatlas/grant-atlas/internal/observability"
	"github.com/civicatlas/grant-atlas/internal/pipeline"
	"github.com/civicatlas/grant-atlas/internal/simulate"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, metrics, logger); err != nil {
		logger.Error("etl run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) error {
	// Each run replaces prior contents entirely, including SQLite sidecars.
	for _, p := range []string{cfg.DBPath, cfg.DBPath + "-wal", cfg.DBPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	seed := cfg.SimSeed
	if seed == 0 {
		seed = domain.Clock().Now().UnixNano()
	}

	p := pipeline.New(
		tiger.NewClient(cfg, metrics, logger),
		census.NewClient(cfg, metrics, logger),
		svi.NewReader(cfg.SVICSVPath, metrics, logger),
		simulate.New(seed, cfg.SimOrgCount, metrics, logger),
		st,
		logger,
		metrics,
	)

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("database populated",
		"path", cfg.DBPath,
		"tracts", report.TractCount,
		"assets", report.AssetCount,
		"orgs", report.OrgCount,
		"grants", report.GrantCount)
	return nil
}
