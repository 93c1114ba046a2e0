// Package pipeline orchestrates one ETL run: fetch geography and
// demographics, merge in SVI scores, simulate assets, and load a fresh
// snapshot into the store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/civicatlas/grant-atlas/internal/domain"
	"github.com/civicatlas/grant-atlas/internal/observability"
)

// defaultSVI is assumed for tracts absent from the SVI CSV: the CDC scale
// midpoint, i.e. average vulnerability.
const defaultSVI = 0.5

// ErrNoTracts means the geography fetch returned nothing useful; loading an
// empty region would silently wipe the database, so the run aborts instead.
var ErrNoTracts = errors.New("no tracts returned for the configured region")

// GeographySource provides tract boundaries.
type GeographySource interface {
	FetchTracts(ctx context.Context) ([]domain.Tract, error)
}

// DemographicsSource provides ACS profiles keyed by GEOID.
type DemographicsSource interface {
	FetchProfiles(ctx context.Context) (map[string]domain.Demographics, error)
}

// VulnerabilitySource provides SVI scores keyed by GEOID.
type VulnerabilitySource interface {
	Scores() (map[string]float64, error)
}

// AssetSimulator produces simulated assets and the nonprofit registry.
type AssetSimulator interface {
	Assets(tracts []domain.Tract) []domain.Asset
	Registry(tracts []domain.Tract) domain.Registry
}

// SnapshotLoader resets the schema and writes one complete snapshot.
type SnapshotLoader interface {
	Init(ctx context.Context) error
	LoadSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// Pipeline wires the sources, simulator, and loader for one run.
type Pipeline struct {
	geo     GeographySource
	demo    DemographicsSource
	svi     VulnerabilitySource
	sim     AssetSimulator
	loader  SnapshotLoader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(
	geo GeographySource,
	demo DemographicsSource,
	svi VulnerabilitySource,
	sim AssetSimulator,
	loader SnapshotLoader,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		geo:     geo,
		demo:    demo,
		svi:     svi,
		sim:     sim,
		loader:  loader,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes one extract-merge-load cycle. Errors propagate to the caller
// for a manual rerun; nothing is committed on failure.
func (p *Pipeline) Run(ctx context.Context) (domain.LoadReport, error) {
	p.logger.Info("etl run started")
	p.metrics.ETLRunning.Set(1)
	defer p.metrics.ETLRunning.Set(0)

	tracts, err := p.geo.FetchTracts(ctx)
	if err != nil {
		return domain.LoadReport{}, fmt.Errorf("fetch geography: %w", err)
	}
	if len(tracts) == 0 {
		return domain.LoadReport{}, ErrNoTracts
	}

	demos, err := p.demo.FetchProfiles(ctx)
	if err != nil {
		return domain.LoadReport{}, fmt.Errorf("fetch demographics: %w", err)
	}

	scores, err := p.svi.Scores()
	if err != nil {
		return domain.LoadReport{}, fmt.Errorf("load svi scores: %w", err)
	}

	report := p.merge(tracts, demos, scores)

	assets := p.sim.Assets(tracts)
	registry := p.sim.Registry(tracts)

	snap := domain.Snapshot{
		Tracts:   tracts,
		Assets:   assets,
		Registry: registry,
		LoadedAt: domain.Clock().Now().UTC(),
	}

	start := time.Now()
	if err := p.loader.Init(ctx); err != nil {
		return domain.LoadReport{}, fmt.Errorf("reset schema: %w", err)
	}
	if err := p.loader.LoadSnapshot(ctx, snap); err != nil {
		return domain.LoadReport{}, fmt.Errorf("load snapshot: %w", err)
	}
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	p.metrics.TractsLoaded.Add(float64(len(tracts)))

	report.AssetCount = len(assets)
	report.OrgCount = len(registry.Orgs)
	report.GrantCount = len(registry.Grants)
	report.LoadedAt = snap.LoadedAt

	p.logger.Info("etl run complete",
		"tracts", report.TractCount,
		"demographic_rows", report.DemographicRows,
		"svi_matches", report.SVIMatches,
		"assets", report.AssetCount,
		"orgs", report.OrgCount,
		"grants", report.GrantCount)
	return report, nil
}

// merge attaches SVI scores and demographics to each tract in place.
// Tracts missing from the CSV get the average score; tracts without an ACS
// row keep zero-valued demographics.
func (p *Pipeline) merge(tracts []domain.Tract, demos map[string]domain.Demographics, scores map[string]float64) domain.LoadReport {
	report := domain.LoadReport{TractCount: len(tracts)}

	for i := range tracts {
		t := &tracts[i]

		if svi, ok := scores[t.GEOID]; ok {
			t.OverallSVI = svi
			report.SVIMatches++
		} else {
			t.OverallSVI = defaultSVI
		}

		if d, ok := demos[t.GEOID]; ok {
			t.Demographics = d
			report.DemographicRows++
		}
	}

	p.logger.Info("merged sources",
		"tracts", report.TractCount,
		"with_demographics", report.DemographicRows,
		"with_svi", report.SVIMatches)
	return report
}
