package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/civicatlas/grant-atlas/internal/domain"
)

// LoadSnapshot writes one complete load in a single transaction. Partial
// data is never committed: any failure rolls the whole load back.
func (s *Store) LoadSnapshot(ctx context.Context, snap domain.Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck // rollback error is secondary
		}
	}()

	if err = insertTracts(ctx, tx, snap); err != nil {
		return err
	}
	if err = insertAssets(ctx, tx, snap.Assets); err != nil {
		return err
	}
	if err = insertRegistry(ctx, tx, snap.Registry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}

	s.logger.Info("snapshot loaded",
		"tracts", len(snap.Tracts),
		"assets", len(snap.Assets),
		"orgs", len(snap.Registry.Orgs),
		"grants", len(snap.Registry.Grants),
		"loaded_at", snap.LoadedAt)
	return nil
}

func insertTracts(ctx context.Context, tx *sql.Tx, snap domain.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracts (
			geoid, name, geometry, overall_svi,
			total_pop, pct_under_18, pct_senior, pct_white, pct_black,
			pct_hispanic, pct_uninsured, pct_broadband, loaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tract insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range snap.Tracts {
		d := t.Demographics
		if _, err := stmt.ExecContext(ctx,
			t.GEOID, t.Name, string(t.Geometry), t.OverallSVI,
			d.TotalPop, d.PctUnder18, d.PctSenior, d.PctWhite, d.PctBlack,
			d.PctHispanic, d.PctUninsured, d.PctBroadband, snap.LoadedAt,
		); err != nil {
			return fmt.Errorf("insert tract %s: %w", t.GEOID, err)
		}
	}
	return nil
}

func insertAssets(ctx context.Context, tx *sql.Tx, assets []domain.Asset) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO assets (asset_id, tract_geoid, asset_type) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare asset insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assets {
		if _, err := stmt.ExecContext(ctx, a.ID, a.TractGEOID, a.Type); err != nil {
			return fmt.Errorf("insert asset %s: %w", a.ID, err)
		}
	}
	return nil
}

func insertRegistry(ctx context.Context, tx *sql.Tx, reg domain.Registry) error {
	for _, o := range reg.Orgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orgs (org_id, name, budget, years_operating) VALUES (?, ?, ?, ?)`,
			o.ID, o.Name, o.Budget, o.YearsOperating,
		); err != nil {
			return fmt.Errorf("insert org %s: %w", o.ID, err)
		}
	}
	for _, o := range reg.Offices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO offices (office_id, org_id, tract_geoid, office_type) VALUES (?, ?, ?, ?)`,
			o.ID, o.OrgID, o.TractGEOID, o.Type,
		); err != nil {
			return fmt.Errorf("insert office %s: %w", o.ID, err)
		}
	}
	for _, g := range reg.Grants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO grants (grant_id, org_id, amount, status, theme) VALUES (?, ?, ?, ?, ?)`,
			g.ID, g.OrgID, g.Amount, g.Status, g.Theme,
		); err != nil {
			return fmt.Errorf("insert grant %s: %w", g.ID, err)
		}
	}
	for _, a := range reg.GrantAreas {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO grant_areas (grant_id, tract_geoid, pct_allocation) VALUES (?, ?, ?)`,
			a.GrantID, a.TractGEOID, a.PctAllocation,
		); err != nil {
			return fmt.Errorf("insert grant area %s/%s: %w", a.GrantID, a.TractGEOID, err)
		}
	}
	return nil
}
