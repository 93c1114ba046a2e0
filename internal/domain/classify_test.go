package domain_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicatlas/grant-atlas/internal/domain"
)

func TestClassify_Quadrants(t *testing.T) {
	tests := []struct {
		name     string
		need     float64
		capacity float64
		want     domain.Strategy
	}{
		{"high need low capacity", 90, 20, domain.StrategyUrgentDesert},
		{"high need high capacity", 90, 80, domain.StrategyHighCapacityHub},
		{"low need high capacity", 10, 80, domain.StrategyStableLowNeed},
		{"low need low capacity", 10, 20, domain.StrategyGeneralOpportunity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Classify(tt.need, tt.capacity))
		})
	}
}

func TestClassify_ThresholdBoundary(t *testing.T) {
	// Percentile exactly at the threshold counts as high on both axes.
	assert.Equal(t, domain.StrategyHighCapacityHub, domain.Classify(50, 50))
	assert.Equal(t, domain.StrategyUrgentDesert, domain.Classify(50, 49.999))
	assert.Equal(t, domain.StrategyStableLowNeed, domain.Classify(49.999, 50))
}

func TestClassify_AlwaysOneOfFour(t *testing.T) {
	for need := 0.0; need <= 100; need += 12.5 {
		for capacity := 0.0; capacity <= 100; capacity += 12.5 {
			got := domain.Classify(need, capacity)
			assert.Contains(t, domain.Strategies, got,
				"need=%v capacity=%v", need, capacity)
		}
	}
}

func TestPercentileRanks_Basic(t *testing.T) {
	got := domain.PercentileRanks([]float64{0.1, 0.4, 0.7, 0.9})

	want := []float64{0, 100.0 / 3, 200.0 / 3, 100}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("ranks mismatch (-want +got):\n%s", diff)
	}
}

func TestPercentileRanks_Ties(t *testing.T) {
	got := domain.PercentileRanks([]float64{0.5, 0.5, 0.9})

	assert.Equal(t, got[0], got[1], "tied values share a rank")
	assert.Equal(t, 100.0, got[2])
}

func TestPercentileRanks_Range(t *testing.T) {
	values := []float64{0.91, 0.02, 0.44, 0.44, 0.73, 0.10, 0.99, 0.31}
	ranks := domain.PercentileRanks(values)
	require.Len(t, ranks, len(values))

	for i, r := range ranks {
		assert.GreaterOrEqual(t, r, 0.0, "index %d", i)
		assert.LessOrEqual(t, r, 100.0, "index %d", i)
	}
}

func TestPercentileRanks_Monotonic(t *testing.T) {
	values := []float64{0.91, 0.02, 0.44, 0.73, 0.10, 0.99, 0.31}
	ranks := domain.PercentileRanks(values)

	type pair struct{ v, r float64 }
	pairs := make([]pair, len(values))
	for i := range values {
		pairs[i] = pair{values[i], ranks[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	for i := 1; i < len(pairs); i++ {
		assert.Greater(t, pairs[i].r, pairs[i-1].r,
			"rank must increase with the underlying value")
	}
}

func TestPercentileRanks_DegenerateSizes(t *testing.T) {
	assert.Empty(t, domain.PercentileRanks(nil))
	assert.Equal(t, []float64{0}, domain.PercentileRanks([]float64{0.7}))
}
