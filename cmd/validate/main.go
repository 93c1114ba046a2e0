// Command validate performs integrity checks over a loaded grant-atlas
// database: schema presence, tract identifiers, scoring-view invariants,
// agreement between the SQL view and the Go classifier, and referential
// integrity of the simulated registry.
//
// Usage:
//
//	go run ./cmd/validate -db grant_atlas.db
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"math"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/civicatlas/grant-atlas/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dbPath := flag.String("db", "grant_atlas.db", "path to the SQLite database")
	flag.Parse()

	db, err := openReadOnly(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer db.Close()

	phases := []*phase{
		checkSchema(db),
		checkTracts(db),
		checkProfiles(db),
		checkPercentiles(db),
		checkReferences(db),
	}

	failed := false
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		failed = true
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// openReadOnly opens the database without write access. The file: prefix is
// required: the driver drops mode=ro from a plain-path DSN.
func openReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", "file:"+path+"?mode=ro")
}

func checkSchema(db *sql.DB) *phase {
	p := &phase{name: "schema"}
	required := map[string]string{
		"tracts": "table", "assets": "table", "orgs": "table",
		"offices": "table", "grants": "table", "grant_areas": "table",
		"vw_tract_profile": "view",
	}
	for name, kind := range required {
		var n int
		err := db.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`, kind, name,
		).Scan(&n)
		if err != nil {
			p.errorf("lookup %s: %v", name, err)
		} else if n == 0 {
			p.errorf("missing %s %q", kind, name)
		}
	}
	return p
}

func checkTracts(db *sql.DB) *phase {
	p := &phase{name: "tracts"}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM tracts`).Scan(&count); err != nil {
		p.errorf("count tracts: %v", err)
		return p
	}
	if count == 0 {
		p.errorf("no tracts loaded")
		return p
	}

	rows, err := db.Query(`SELECT geoid, overall_svi FROM tracts`)
	if err != nil {
		p.errorf("query tracts: %v", err)
		return p
	}
	defer rows.Close()

	for rows.Next() {
		var geoid string
		var svi sql.NullFloat64
		if err := rows.Scan(&geoid, &svi); err != nil {
			p.errorf("scan tract: %v", err)
			return p
		}
		if len(geoid) != 11 {
			p.errorf("tract %q: GEOID is not 11 digits", geoid)
		}
		if svi.Valid && (svi.Float64 < 0 || svi.Float64 > 1) {
			p.errorf("tract %s: SVI %v outside [0, 1]", geoid, svi.Float64)
		}
	}
	if err := rows.Err(); err != nil {
		p.errorf("iterate tracts: %v", err)
	}
	return p
}

func checkProfiles(db *sql.DB) *phase {
	p := &phase{name: "profiles"}

	var eligible, viewCount int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM tracts WHERE overall_svi IS NOT NULL AND geometry <> ''`,
	).Scan(&eligible)
	if err != nil {
		p.errorf("count eligible tracts: %v", err)
		return p
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM vw_tract_profile`).Scan(&viewCount); err != nil {
		p.errorf("count view rows: %v", err)
		return p
	}
	if eligible != viewCount {
		p.errorf("view has %d rows, expected %d eligible tracts", viewCount, eligible)
	}

	valid := make(map[string]bool, len(domain.Strategies))
	for _, s := range domain.Strategies {
		valid[string(s)] = true
	}

	rows, err := db.Query(`SELECT geoid, need_pctl, capacity_pctl, strategy FROM vw_tract_profile`)
	if err != nil {
		p.errorf("query view: %v", err)
		return p
	}
	defer rows.Close()

	for rows.Next() {
		var geoid, strategy string
		var need, capacity float64
		if err := rows.Scan(&geoid, &need, &capacity, &strategy); err != nil {
			p.errorf("scan profile: %v", err)
			return p
		}
		if need < 0 || need > 100 {
			p.errorf("tract %s: need percentile %v outside [0, 100]", geoid, need)
		}
		if capacity < 0 || capacity > 100 {
			p.errorf("tract %s: capacity percentile %v outside [0, 100]", geoid, capacity)
		}
		if !valid[strategy] {
			p.errorf("tract %s: unknown strategy %q", geoid, strategy)
		}
		if want := domain.Classify(need, capacity); string(want) != strategy {
			p.errorf("tract %s: view says %q, classifier says %q (need=%v capacity=%v)",
				geoid, strategy, want, need, capacity)
		}
	}
	if err := rows.Err(); err != nil {
		p.errorf("iterate profiles: %v", err)
	}
	return p
}

// checkPercentiles recomputes both percentile axes from the raw tables and
// compares them against the view, catching drift between the SQL window
// functions and the Go implementation. Capacity rebuilds the asset density,
// including the raw-count fallback for unpopulated tracts.
func checkPercentiles(db *sql.DB) *phase {
	p := &phase{name: "percentile cross-check"}

	rows, err := db.Query(`
		SELECT v.geoid, t.overall_svi, v.need_pctl, t.total_pop, v.capacity_pctl,
		       (SELECT COUNT(*) FROM assets a WHERE a.tract_geoid = v.geoid)
		FROM vw_tract_profile v
		JOIN tracts t ON t.geoid = v.geoid
		ORDER BY v.geoid`)
	if err != nil {
		p.errorf("query percentiles: %v", err)
		return p
	}
	defer rows.Close()

	var geoids []string
	var svis, needView, densities, capacityView []float64
	for rows.Next() {
		var geoid string
		var svi, need, capacity float64
		var pop, assetCount int
		if err := rows.Scan(&geoid, &svi, &need, &pop, &capacity, &assetCount); err != nil {
			p.errorf("scan percentile row: %v", err)
			return p
		}
		density := float64(assetCount)
		if pop > 0 {
			density = float64(assetCount) * 1000.0 / float64(pop)
		}
		geoids = append(geoids, geoid)
		svis = append(svis, svi)
		needView = append(needView, need)
		densities = append(densities, density)
		capacityView = append(capacityView, capacity)
	}
	if err := rows.Err(); err != nil {
		p.errorf("iterate percentiles: %v", err)
		return p
	}

	needWant := domain.PercentileRanks(svis)
	capacityWant := domain.PercentileRanks(densities)
	for i := range geoids {
		if math.Abs(needWant[i]-needView[i]) > 1e-6 {
			p.errorf("tract %s: view need percentile %v, recomputed %v",
				geoids[i], needView[i], needWant[i])
		}
		if math.Abs(capacityWant[i]-capacityView[i]) > 1e-6 {
			p.errorf("tract %s: view capacity percentile %v, recomputed %v",
				geoids[i], capacityView[i], capacityWant[i])
		}
	}
	return p
}

func checkReferences(db *sql.DB) *phase {
	p := &phase{name: "references"}

	checks := []struct {
		desc  string
		query string
	}{
		{"assets referencing unknown tracts",
			`SELECT COUNT(*) FROM assets a LEFT JOIN tracts t ON t.geoid = a.tract_geoid WHERE t.geoid IS NULL`},
		{"offices referencing unknown orgs",
			`SELECT COUNT(*) FROM offices o LEFT JOIN orgs g ON g.org_id = o.org_id WHERE g.org_id IS NULL`},
		{"offices referencing unknown tracts",
			`SELECT COUNT(*) FROM offices o LEFT JOIN tracts t ON t.geoid = o.tract_geoid WHERE t.geoid IS NULL`},
		{"grants referencing unknown orgs",
			`SELECT COUNT(*) FROM grants g LEFT JOIN orgs o ON o.org_id = g.org_id WHERE o.org_id IS NULL`},
		{"grant areas referencing unknown tracts",
			`SELECT COUNT(*) FROM grant_areas ga LEFT JOIN tracts t ON t.geoid = ga.tract_geoid WHERE t.geoid IS NULL`},
	}
	for _, c := range checks {
		var n int
		if err := db.QueryRow(c.query).Scan(&n); err != nil {
			p.errorf("%s: %v", c.desc, err)
		} else if n > 0 {
			p.errorf("%d %s", n, c.desc)
		}
	}

	rows, err := db.Query(`SELECT grant_id, SUM(pct_allocation) FROM grant_areas GROUP BY grant_id`)
	if err != nil {
		p.errorf("query grant allocations: %v", err)
		return p
	}
	defer rows.Close()

	for rows.Next() {
		var grantID string
		var total float64
		if err := rows.Scan(&grantID, &total); err != nil {
			p.errorf("scan allocation: %v", err)
			return p
		}
		if math.Abs(total-100) > 0.5 {
			p.errorf("grant %s: allocations sum to %.1f%%, expected 100%%", grantID, total)
		}
	}
	if err := rows.Err(); err != nil {
		p.errorf("iterate allocations: %v", err)
	}
	return p
}
