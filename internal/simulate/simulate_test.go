package simulate_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicatlas/grant-atlas/internal/domain"
	"github.com/civicatlas/grant-atlas/internal/observability"
	"github.com/civicatlas/grant-atlas/internal/simulate"
)

func testSimulator(seed int64, orgCount int) *simulate.Simulator {
	return simulate.New(seed, orgCount,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func makeTracts(n int, svi float64) []domain.Tract {
	tracts := make([]domain.Tract, n)
	for i := range tracts {
		tracts[i] = domain.Tract{
			GEOID:      fmt.Sprintf("36045%06d", (i+1)*100),
			Name:       fmt.Sprintf("Tract %d", i+1),
			Geometry:   json.RawMessage(`{"type":"Polygon","coordinates":[]}`),
			OverallSVI: svi,
		}
	}
	return tracts
}

func TestSimulator_Assets_DeterministicUnderSeed(t *testing.T) {
	tracts := makeTracts(20, 0.5)

	a := testSimulator(42, 0).Assets(tracts)
	b := testSimulator(42, 0).Assets(tracts)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different assets (-a +b):\n%s", diff)
	}

	c := testSimulator(43, 0).Assets(tracts)
	assert.NotEqual(t, a, c, "different seeds should diverge")
}

func TestSimulator_Assets_ReferencesValidTracts(t *testing.T) {
	tracts := makeTracts(10, 0.5)
	valid := make(map[string]bool)
	for _, tr := range tracts {
		valid[tr.GEOID] = true
	}

	for _, a := range testSimulator(1, 0).Assets(tracts) {
		assert.True(t, valid[a.TractGEOID], "asset %s references unknown tract %s", a.ID, a.TractGEOID)
		assert.NotEmpty(t, a.ID)
		assert.NotEmpty(t, a.Type)
	}
}

func TestSimulator_Assets_SVIBiasesCount(t *testing.T) {
	// With SVI 1.0, only the 0 and 1 count weights are positive.
	highNeed := makeTracts(200, 1.0)
	perTract := make(map[string]int)
	for _, a := range testSimulator(7, 0).Assets(highNeed) {
		perTract[a.TractGEOID]++
	}
	for geoid, n := range perTract {
		assert.LessOrEqual(t, n, 1, "tract %s with SVI 1.0 got %d assets", geoid, n)
	}

	// With SVI 0.0, only the 2 and 4 count weights are positive, so every
	// tract gets at least two assets.
	lowNeed := makeTracts(200, 0.0)
	perTract = make(map[string]int)
	for _, a := range testSimulator(7, 0).Assets(lowNeed) {
		perTract[a.TractGEOID]++
	}
	for _, tr := range lowNeed {
		assert.GreaterOrEqual(t, perTract[tr.GEOID], 2, "tract %s with SVI 0.0 too few assets", tr.GEOID)
	}
}

func TestSimulator_Registry_Shape(t *testing.T) {
	tracts := makeTracts(10, 0.5)
	reg := testSimulator(5, 8).Registry(tracts)

	require.Len(t, reg.Orgs, 8)
	require.Len(t, reg.Offices, 8, "one office per org")

	orgIDs := make(map[string]bool)
	for _, o := range reg.Orgs {
		assert.NotEmpty(t, o.Name)
		assert.GreaterOrEqual(t, o.Budget, 50_000)
		assert.GreaterOrEqual(t, o.YearsOperating, 1)
		orgIDs[o.ID] = true
	}
	for _, o := range reg.Offices {
		assert.True(t, orgIDs[o.OrgID], "office %s references unknown org", o.ID)
	}
	for _, g := range reg.Grants {
		assert.True(t, orgIDs[g.OrgID], "grant %s references unknown org", g.ID)
		assert.GreaterOrEqual(t, g.Amount, 5_000)
	}
}

func TestSimulator_Registry_AllocationsSumTo100(t *testing.T) {
	tracts := makeTracts(10, 0.5)
	reg := testSimulator(11, 10).Registry(tracts)
	require.NotEmpty(t, reg.Grants)

	totals := make(map[string]float64)
	for _, a := range reg.GrantAreas {
		totals[a.GrantID] += a.PctAllocation
	}
	for _, g := range reg.Grants {
		assert.InDelta(t, 100, totals[g.ID], 0.5, "grant %s allocations", g.ID)
	}
}

func TestSimulator_Registry_EmptyInputs(t *testing.T) {
	reg := testSimulator(1, 10).Registry(nil)
	assert.Empty(t, reg.Orgs)

	reg = testSimulator(1, 0).Registry(makeTracts(5, 0.5))
	assert.Empty(t, reg.Orgs)
}
