// Command genfixtures generates synthetic TIGERweb, ACS, and SVI fixtures
// for tests and offline demo runs. It can also load the generated region
// straight into a SQLite database through the actual pipeline package, so
// the demo data matches real ETL behavior exactly.
//
// Usage:
//
//	go run ./cmd/genfixtures -out testdata/fixtures
//	go run ./cmd/genfixtures -db grant_atlas.db -tracts 24 -seed 1
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/civicatlas/grant-atlas/internal/domain"
	"github.com/civicatlas/grant-atlas/internal/observability"
	"github.com/civicatlas/grant-atlas/internal/pipeline"
	"github.com/civicatlas/grant-atlas/internal/simulate"
	"github.com/civicatlas/grant-atlas/internal/store"
)

var baseDate = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

const (
	stateFIPS = "36"
	// Grid origin roughly centered on the Tug Hill region.
	originLon = -75.4
	originLat = 44.2
	cellSize  = 0.05
)

var counties = []string{"045", "049", "089"}

// region holds everything derived from one generation pass.
type region struct {
	tracts []domain.Tract
	demos  map[string]domain.Demographics
	scores map[string]float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "directory to write tigerweb.json, acs.json, and svi.csv")
	dbPath := flag.String("db", "", "optional SQLite path to load the region into")
	tractCount := flag.Int("tracts", 24, "number of synthetic tracts")
	seed := flag.Int64("seed", 1, "random seed for reproducible fixtures")
	flag.Parse()

	if *outDir == "" && *dbPath == "" {
		flag.Usage()
		return fmt.Errorf("at least one of -out or -db is required")
	}

	rng := rand.New(rand.NewSource(*seed))
	reg := generate(rng, *tractCount)

	if *outDir != "" {
		if err := writeFixtures(*outDir, reg); err != nil {
			return err
		}
	}
	if *dbPath != "" {
		if err := loadDatabase(*dbPath, reg, *seed); err != nil {
			return err
		}
	}
	return nil
}

// generate builds a grid of square tracts with correlated SVI and
// demographics. A few tracts are deliberately left out of the SVI and ACS
// data to exercise the ETL's fallback paths.
func generate(rng *rand.Rand, n int) region {
	reg := region{
		demos:  make(map[string]domain.Demographics),
		scores: make(map[string]float64),
	}

	for i := 0; i < n; i++ {
		county := counties[i%len(counties)]
		geoid := fmt.Sprintf("%s%s%06d", stateFIPS, county, (i+1)*100)
		name := fmt.Sprintf("Tract %d.%02d", i/100+1, i%100)

		col, row := i%6, i/6
		lon := originLon + float64(col)*cellSize
		lat := originLat + float64(row)*cellSize

		reg.tracts = append(reg.tracts, domain.Tract{
			GEOID:    geoid,
			Name:     name,
			Geometry: squarePolygon(lon, lat),
		})

		if rng.Float64() < 0.9 { // ~10% of tracts missing from the SVI CSV
			reg.scores[geoid] = float64(int(rng.Float64()*10000)) / 10000
		}
		if rng.Float64() < 0.9 { // ~10% missing from ACS
			pop := 500 + rng.Intn(5000)
			reg.demos[geoid] = domain.Demographics{
				TotalPop:     pop,
				PctUnder18:   round1(10 + rng.Float64()*20),
				PctSenior:    round1(10 + rng.Float64()*20),
				PctWhite:     round1(60 + rng.Float64()*35),
				PctBlack:     round1(rng.Float64() * 15),
				PctHispanic:  round1(rng.Float64() * 15),
				PctUninsured: round1(2 + rng.Float64()*15),
				PctBroadband: round1(50 + rng.Float64()*45),
			}
		}
	}
	return reg
}

func squarePolygon(lon, lat float64) json.RawMessage {
	ring := [][]float64{
		{lon, lat},
		{lon + cellSize, lat},
		{lon + cellSize, lat + cellSize},
		{lon, lat + cellSize},
		{lon, lat},
	}
	g := map[string]any{"type": "Polygon", "coordinates": [][][]float64{ring}}
	b, _ := json.Marshal(g) //nolint:errcheck // fixed shape always marshals
	return b
}

func round1(v float64) float64 {
	return float64(int(v*10)) / 10
}

func writeFixtures(dir string, reg region) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	// TIGERweb-style feature collection.
	features := make([]map[string]any, len(reg.tracts))
	for i, t := range reg.tracts {
		features[i] = map[string]any{
			"type": "Feature",
			"properties": map[string]string{
				"GEOID": t.GEOID,
				"NAME":  t.Name[len("Tract "):],
			},
			"geometry": json.RawMessage(t.Geometry),
		}
	}
	if err := writeJSON(filepath.Join(dir, "tigerweb.json"), map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	}); err != nil {
		return err
	}

	// ACS-style array of string arrays with trailing geo columns.
	acs := [][]string{{
		"DP05_0001E", "DP05_0019E", "DP05_0024E", "DP05_0037E", "DP05_0038E",
		"DP05_0071E", "DP03_0099PE", "DP02_0153PE", "state", "county", "tract",
	}}
	for _, t := range reg.tracts {
		d, ok := reg.demos[t.GEOID]
		if !ok {
			continue
		}
		pop := float64(d.TotalPop)
		count := func(pct float64) string {
			return strconv.Itoa(int(pct * pop / 100))
		}
		acs = append(acs, []string{
			strconv.Itoa(d.TotalPop),
			count(d.PctUnder18), count(d.PctSenior), count(d.PctWhite),
			count(d.PctBlack), count(d.PctHispanic),
			fmt.Sprintf("%.1f", d.PctUninsured), fmt.Sprintf("%.1f", d.PctBroadband),
			t.GEOID[:2], t.GEOID[2:5], t.GEOID[5:],
		})
	}
	if err := writeJSON(filepath.Join(dir, "acs.json"), acs); err != nil {
		return err
	}

	// CDC-style SVI CSV, including a -999 row to exercise sentinel filtering.
	f, err := os.Create(filepath.Join(dir, "svi.csv"))
	if err != nil {
		return fmt.Errorf("create svi.csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"FIPS", "LOCATION", "RPL_THEMES"}); err != nil {
		return fmt.Errorf("write svi header: %w", err)
	}
	for _, t := range reg.tracts {
		score, ok := reg.scores[t.GEOID]
		value := "-999"
		if ok {
			value = strconv.FormatFloat(score, 'f', 4, 64)
		}
		if err := cw.Write([]string{t.GEOID, t.Name, value}); err != nil {
			return fmt.Errorf("write svi row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush svi.csv: %w", err)
	}

	log.Printf("wrote fixtures for %d tracts to %s", len(reg.tracts), dir)
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// loadDatabase runs the real pipeline against in-memory stub sources so the
// demo database is produced by exactly the code the ETL uses.
func loadDatabase(path string, reg region, seed int64) error {
	// Fixed clock for a reproducible loaded_at timestamp.
	domain.SetClock(clockwork.NewFakeClockAt(baseDate))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	st, err := store.Open(path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	p := pipeline.New(
		stubGeo{reg.tracts},
		stubDemo{reg.demos},
		stubSVI{reg.scores},
		simulate.New(seed, 12, metrics, logger),
		st,
		logger,
		metrics,
	)

	report, err := p.Run(context.Background())
	if err != nil {
		return err
	}
	log.Printf("loaded %d tracts, %d assets, %d orgs into %s",
		report.TractCount, report.AssetCount, report.OrgCount, path)
	return nil
}

type stubGeo struct{ tracts []domain.Tract }

func (s stubGeo) FetchTracts(context.Context) ([]domain.Tract, error) {
	// Copy so the pipeline's in-place merge cannot alias the region data.
	out := make([]domain.Tract, len(s.tracts))
	copy(out, s.tracts)
	return out, nil
}

type stubDemo struct{ demos map[string]domain.Demographics }

func (s stubDemo) FetchProfiles(context.Context) (map[string]domain.Demographics, error) {
	return s.demos, nil
}

type stubSVI struct{ scores map[string]float64 }

func (s stubSVI) Scores() (map[string]float64, error) {
	return s.scores, nil
}
