package store

// Schema statements are applied in order on every ETL run; each load fully
// replaces prior contents, so drops come first.
var schemaStatements = []string{
	`DROP VIEW IF EXISTS vw_tract_profile`,
	`DROP TABLE IF EXISTS grant_areas`,
	`DROP TABLE IF EXISTS grants`,
	`DROP TABLE IF EXISTS offices`,
	`DROP TABLE IF EXISTS orgs`,
	`DROP TABLE IF EXISTS assets`,
	`DROP TABLE IF EXISTS tracts`,

	`CREATE TABLE tracts (
		geoid         TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		geometry      TEXT NOT NULL,
		overall_svi   REAL,
		total_pop     INTEGER NOT NULL DEFAULT 0,
		pct_under_18  REAL NOT NULL DEFAULT 0,
		pct_senior    REAL NOT NULL DEFAULT 0,
		pct_white     REAL NOT NULL DEFAULT 0,
		pct_black     REAL NOT NULL DEFAULT 0,
		pct_hispanic  REAL NOT NULL DEFAULT 0,
		pct_uninsured REAL NOT NULL DEFAULT 0,
		pct_broadband REAL NOT NULL DEFAULT 0,
		loaded_at     TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE assets (
		asset_id    TEXT PRIMARY KEY,
		tract_geoid TEXT NOT NULL REFERENCES tracts(geoid),
		asset_type  TEXT NOT NULL
	)`,

	`CREATE INDEX idx_assets_tract ON assets(tract_geoid)`,

	`CREATE TABLE orgs (
		org_id          TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		budget          INTEGER NOT NULL,
		years_operating INTEGER NOT NULL
	)`,

	`CREATE TABLE offices (
		office_id   TEXT PRIMARY KEY,
		org_id      TEXT NOT NULL REFERENCES orgs(org_id),
		tract_geoid TEXT NOT NULL REFERENCES tracts(geoid),
		office_type TEXT NOT NULL
	)`,

	`CREATE TABLE grants (
		grant_id TEXT PRIMARY KEY,
		org_id   TEXT NOT NULL REFERENCES orgs(org_id),
		amount   INTEGER NOT NULL,
		status   TEXT NOT NULL,
		theme    TEXT NOT NULL
	)`,

	`CREATE TABLE grant_areas (
		grant_id       TEXT NOT NULL REFERENCES grants(grant_id),
		tract_geoid    TEXT NOT NULL REFERENCES tracts(geoid),
		pct_allocation REAL NOT NULL,
		PRIMARY KEY (grant_id, tract_geoid)
	)`,

	// vw_tract_profile is the scoring view: one row per eligible tract with
	// need/capacity percentile ranks on a 0-100 scale and the strategy label.
	// The CASE expression must mirror domain.Classify; cmd/validate
	// cross-checks the two on every run.
	`CREATE VIEW vw_tract_profile AS
	WITH eligible AS (
		SELECT
			t.*,
			COUNT(a.asset_id) AS asset_count,
			CASE WHEN t.total_pop > 0
			     THEN COUNT(a.asset_id) * 1000.0 / t.total_pop
			     ELSE CAST(COUNT(a.asset_id) AS REAL)
			END AS asset_density
		FROM tracts t
		LEFT JOIN assets a ON a.tract_geoid = t.geoid
		WHERE t.overall_svi IS NOT NULL AND t.geometry <> ''
		GROUP BY t.geoid
	),
	ranked AS (
		SELECT
			e.*,
			PERCENT_RANK() OVER (ORDER BY e.overall_svi)   * 100.0 AS need_pctl,
			PERCENT_RANK() OVER (ORDER BY e.asset_density) * 100.0 AS capacity_pctl
		FROM eligible e
	)
	SELECT
		geoid, name, geometry, overall_svi,
		total_pop, pct_under_18, pct_senior, pct_white, pct_black,
		pct_hispanic, pct_uninsured, pct_broadband,
		asset_count, need_pctl, capacity_pctl,
		CASE
			WHEN need_pctl >= 50 AND capacity_pctl < 50 THEN 'Urgent Desert'
			WHEN need_pctl >= 50                        THEN 'High-Capacity Hub'
			WHEN capacity_pctl >= 50                    THEN 'Stable / Low Need'
			ELSE 'General Opportunity'
		END AS strategy
	FROM ranked`,
}
