package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/civicatlas/grant-atlas/internal/domain"
)

const profileColumns = `
	geoid, name, geometry, overall_svi,
	total_pop, pct_under_18, pct_senior, pct_white, pct_black,
	pct_hispanic, pct_uninsured, pct_broadband,
	asset_count, need_pctl, capacity_pctl, strategy`

const (
	selectProfiles = `
		SELECT ` + profileColumns + `
		FROM vw_tract_profile
		WHERE overall_svi >= ?
		ORDER BY overall_svi DESC`

	selectProfile = `
		SELECT ` + profileColumns + `
		FROM vw_tract_profile
		WHERE geoid = ?`

	selectAssets = `
		SELECT asset_id, tract_geoid, asset_type
		FROM assets
		WHERE tract_geoid = ?
		ORDER BY asset_type, asset_id`

	selectTractGrants = `
		SELECT g.grant_id, o.name, g.amount, g.status, g.theme, ga.pct_allocation
		FROM grant_areas ga
		JOIN grants g ON g.grant_id = ga.grant_id
		JOIN orgs o   ON o.org_id   = g.org_id
		WHERE ga.tract_geoid = ?
		ORDER BY g.amount * ga.pct_allocation DESC`

	selectSummary = `
		SELECT strategy, COUNT(*)
		FROM vw_tract_profile
		GROUP BY strategy`
)

// Profiles returns scoring-view rows for every tract with overall SVI at or
// above minSVI, highest need first. Pass 0 for all tracts.
func (s *Store) Profiles(ctx context.Context, minSVI float64) ([]domain.TractProfile, error) {
	rows, err := s.db.QueryContext(ctx, selectProfiles, minSVI)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.TractProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Profile returns the scoring-view row for one tract, or domain.ErrNotFound.
func (s *Store) Profile(ctx context.Context, geoid string) (domain.TractProfile, error) {
	row := s.db.QueryRowContext(ctx, selectProfile, geoid)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TractProfile{}, domain.ErrNotFound
	}
	return p, err
}

// Assets returns the simulated assets inside a tract.
func (s *Store) Assets(ctx context.Context, geoid string) ([]domain.Asset, error) {
	rows, err := s.db.QueryContext(ctx, selectAssets, geoid)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.TractGEOID, &a.Type); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// TractGrants returns grants allocated to a tract, largest allocation first.
func (s *Store) TractGrants(ctx context.Context, geoid string) ([]domain.TractGrant, error) {
	rows, err := s.db.QueryContext(ctx, selectTractGrants, geoid)
	if err != nil {
		return nil, fmt.Errorf("query tract grants: %w", err)
	}
	defer rows.Close()

	var grants []domain.TractGrant
	for rows.Next() {
		var g domain.TractGrant
		if err := rows.Scan(&g.GrantID, &g.OrgName, &g.Amount, &g.Status, &g.Theme, &g.PctAllocation); err != nil {
			return nil, fmt.Errorf("scan tract grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// Summary returns tract counts per strategy label.
func (s *Store) Summary(ctx context.Context) (domain.Summary, error) {
	rows, err := s.db.QueryContext(ctx, selectSummary)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	sum := domain.Summary{ByStrategy: make(map[domain.Strategy]int)}
	for rows.Next() {
		var strategy string
		var count int
		if err := rows.Scan(&strategy, &count); err != nil {
			return domain.Summary{}, fmt.Errorf("scan summary: %w", err)
		}
		sum.ByStrategy[domain.Strategy(strategy)] = count
		sum.TractCount += count
	}
	return sum, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(sc scanner) (domain.TractProfile, error) {
	var p domain.TractProfile
	var geometry string
	var strategy string
	d := &p.Demographics

	err := sc.Scan(
		&p.GEOID, &p.Name, &geometry, &p.OverallSVI,
		&d.TotalPop, &d.PctUnder18, &d.PctSenior, &d.PctWhite, &d.PctBlack,
		&d.PctHispanic, &d.PctUninsured, &d.PctBroadband,
		&p.AssetCount, &p.NeedPctl, &p.CapacityPctl, &strategy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TractProfile{}, err
		}
		return domain.TractProfile{}, fmt.Errorf("scan profile: %w", err)
	}

	p.Geometry = json.RawMessage(geometry)
	p.Strategy = domain.Strategy(strategy)
	return p, nil
}
