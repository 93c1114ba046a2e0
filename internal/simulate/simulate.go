// Package simulate generates stand-in civic assets and a small nonprofit
// registry for tracts, pending integration with real registries.
package simulate

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/civicatlas/grant-atlas/internal/domain"
	"github.com/civicatlas/grant-atlas/internal/observability"
)

var assetTypes = []string{"Library", "School", "Community Center", "Park", "Clinic"}

var (
	orgPrefixes = []string{"Northside", "Riverview", "Tug Hill", "Lakeshore", "Valley", "Eastgate", "Harbor", "Maple Street"}
	orgSuffixes = []string{"Youth Alliance", "Community Fund", "Neighbors Coalition", "Family Services", "Opportunity Center", "Food Network"}

	officeTypes   = []string{"headquarters", "satellite", "service center"}
	grantStatuses = []string{"awarded", "pending", "closed"}
	grantThemes   = []string{"youth", "health", "housing", "food", "education", "arts"}
)

// Simulator produces deterministic output for a given seed.
type Simulator struct {
	rng      *rand.Rand
	orgCount int
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Simulator. Callers wanting reproducible output pass a fixed
// seed; the ETL derives one from the clock when unseeded.
func New(seed int64, orgCount int, metrics *observability.Metrics, logger *slog.Logger) *Simulator {
	return &Simulator{
		rng:      rand.New(rand.NewSource(seed)),
		orgCount: orgCount,
		metrics:  metrics,
		logger:   logger,
	}
}

// Assets simulates civic infrastructure per tract. High SVI biases a tract
// toward zero assets (a desert); low SVI toward several (a hub).
func (s *Simulator) Assets(tracts []domain.Tract) []domain.Asset {
	var assets []domain.Asset
	for _, t := range tracts {
		svi := t.OverallSVI
		count := weightedChoice(s.rng,
			[]int{0, 1, 2, 4},
			[]float64{svi * 6, svi * 3, (1 - svi) * 2, (1 - svi) * 4},
		)
		for i := 0; i < count; i++ {
			assets = append(assets, domain.Asset{
				ID:         s.newID(),
				TractGEOID: t.GEOID,
				Type:       assetTypes[s.rng.Intn(len(assetTypes))],
			})
		}
	}

	s.metrics.AssetsSimulated.Add(float64(len(assets)))
	s.logger.Info("simulated assets", "tracts", len(tracts), "assets", len(assets))
	return assets
}

// Registry simulates nonprofit organizations, their offices, and grants with
// tract allocations. Returns an empty registry when no tracts exist.
func (s *Simulator) Registry(tracts []domain.Tract) domain.Registry {
	var reg domain.Registry
	if len(tracts) == 0 || s.orgCount == 0 {
		return reg
	}

	for i := 0; i < s.orgCount; i++ {
		org := domain.Org{
			ID:             s.newID(),
			Name:           s.orgName(),
			Budget:         50_000 + s.rng.Intn(4_950_000),
			YearsOperating: 1 + s.rng.Intn(40),
		}
		reg.Orgs = append(reg.Orgs, org)

		reg.Offices = append(reg.Offices, domain.Office{
			ID:         s.newID(),
			OrgID:      org.ID,
			TractGEOID: tracts[s.rng.Intn(len(tracts))].GEOID,
			Type:       officeTypes[s.rng.Intn(len(officeTypes))],
		})

		for g := s.rng.Intn(4); g > 0; g-- {
			grant := domain.Grant{
				ID:     s.newID(),
				OrgID:  org.ID,
				Amount: 5_000 + s.rng.Intn(245_000),
				Status: grantStatuses[s.rng.Intn(len(grantStatuses))],
				Theme:  grantThemes[s.rng.Intn(len(grantThemes))],
			}
			reg.Grants = append(reg.Grants, grant)
			reg.GrantAreas = append(reg.GrantAreas, s.allocate(grant.ID, tracts)...)
		}
	}

	s.logger.Info("simulated nonprofit registry",
		"orgs", len(reg.Orgs), "grants", len(reg.Grants))
	return reg
}

// allocate spreads a grant across 1-3 distinct tracts with percentage
// allocations summing to 100.
func (s *Simulator) allocate(grantID string, tracts []domain.Tract) []domain.GrantArea {
	n := 1 + s.rng.Intn(3)
	if n > len(tracts) {
		n = len(tracts)
	}

	picked := s.rng.Perm(len(tracts))[:n]
	areas := make([]domain.GrantArea, n)
	remaining := 100.0
	for i, idx := range picked {
		pct := remaining
		if i < n-1 {
			// Leave at least 10% for each remaining tract.
			maxShare := remaining - 10*float64(n-1-i)
			pct = 10 + s.rng.Float64()*(maxShare-10)
			pct = float64(int(pct*10)) / 10
		}
		remaining -= pct
		areas[i] = domain.GrantArea{
			GrantID:       grantID,
			TractGEOID:    tracts[idx].GEOID,
			PctAllocation: pct,
		}
	}
	return areas
}

func (s *Simulator) orgName() string {
	prefix := orgPrefixes[s.rng.Intn(len(orgPrefixes))]
	suffix := orgSuffixes[s.rng.Intn(len(orgSuffixes))]
	return fmt.Sprintf("%s %s", prefix, suffix)
}

// newID produces a UUID from the simulator's own random stream so output
// is reproducible under a fixed seed.
func (s *Simulator) newID() string {
	var b [16]byte
	s.rng.Read(b[:]) //nolint:errcheck // math/rand Read never fails
	id, _ := uuid.FromBytes(b[:])
	return id.String()
}

// weightedChoice picks one choice with probability proportional to its
// weight. Non-positive weights are treated as zero; if all weights are
// zero the first choice wins.
func weightedChoice(rng *rand.Rand, choices []int, weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return choices[0]
	}

	target := rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if target < w {
			return choices[i]
		}
		target -= w
	}
	return choices[len(choices)-1]
}
