package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by store lookups when no tract matches.
var ErrNotFound = errors.New("tract not found")

// Tract is a census geographic unit loaded by the ETL. Reference data:
// written once per load, never mutated by the dashboard.
type Tract struct {
	GEOID      string          `json:"geoid"`
	Name       string          `json:"name"`
	Geometry   json.RawMessage `json:"geometry"` // GeoJSON Polygon or MultiPolygon
	OverallSVI float64         `json:"overall_svi"`

	Demographics Demographics `json:"demographics"`
}

// Demographics holds the ACS Data Profile fields kept per tract.
// Count variables are expressed as percentages of total population.
type Demographics struct {
	TotalPop     int     `json:"total_pop"`
	PctUnder18   float64 `json:"pct_under_18"`
	PctSenior    float64 `json:"pct_senior"`
	PctWhite     float64 `json:"pct_white"`
	PctBlack     float64 `json:"pct_black"`
	PctHispanic  float64 `json:"pct_hispanic"`
	PctUninsured float64 `json:"pct_uninsured"`
	PctBroadband float64 `json:"pct_broadband"`
}

// Asset is a simulated point of civic infrastructure inside a tract.
type Asset struct {
	ID         string `json:"asset_id"`
	TractGEOID string `json:"tract_geoid"`
	Type       string `json:"type"`
}

// Org is a simulated nonprofit organization.
type Org struct {
	ID             string `json:"org_id"`
	Name           string `json:"name"`
	Budget         int    `json:"budget"`
	YearsOperating int    `json:"years_operating"`
}

// Office places an org in a tract.
type Office struct {
	ID         string `json:"office_id"`
	OrgID      string `json:"org_id"`
	TractGEOID string `json:"tract_geoid"`
	Type       string `json:"office_type"`
}

// Grant is a simulated award made by an org.
type Grant struct {
	ID     string `json:"grant_id"`
	OrgID  string `json:"org_id"`
	Amount int    `json:"amount"`
	Status string `json:"status"`
	Theme  string `json:"theme"`
}

// GrantArea allocates a percentage of a grant to a tract.
// Allocations for one grant sum to 100.
type GrantArea struct {
	GrantID       string  `json:"grant_id"`
	TractGEOID    string  `json:"tract_geoid"`
	PctAllocation float64 `json:"pct_allocation"`
}

// Registry bundles the simulated nonprofit entities produced alongside assets.
type Registry struct {
	Orgs       []Org
	Offices    []Office
	Grants     []Grant
	GrantAreas []GrantArea
}

// Snapshot is one complete load: everything the ETL writes in a single
// transaction, replacing prior contents.
type Snapshot struct {
	Tracts   []Tract
	Assets   []Asset
	Registry Registry
	LoadedAt time.Time
}

// TractProfile is a derived row from the scoring view: one per tract,
// recomputed on every query, never persisted independently.
type TractProfile struct {
	GEOID        string          `json:"geoid"`
	Name         string          `json:"name"`
	Geometry     json.RawMessage `json:"geometry"`
	OverallSVI   float64         `json:"overall_svi"`
	Demographics Demographics    `json:"demographics"`
	AssetCount   int             `json:"asset_count"`
	NeedPctl     float64         `json:"need_pctl"`
	CapacityPctl float64         `json:"capacity_pctl"`
	Strategy     Strategy        `json:"strategy"`
}

// TractGrant is a drill-down row: a grant with its tract allocation and
// the granting org's name joined in.
type TractGrant struct {
	GrantID       string  `json:"grant_id"`
	OrgName       string  `json:"org_name"`
	Amount        int     `json:"amount"`
	Status        string  `json:"status"`
	Theme         string  `json:"theme"`
	PctAllocation float64 `json:"pct_allocation"`
}

// Summary aggregates the loaded region for the dashboard header.
type Summary struct {
	TractCount int              `json:"tract_count"`
	ByStrategy map[Strategy]int `json:"by_strategy"`
}

// LoadReport describes one ETL run for logging and exit-status decisions.
type LoadReport struct {
	TractCount      int
	DemographicRows int
	SVIMatches      int
	AssetCount      int
	OrgCount        int
	GrantCount      int
	LoadedAt        time.Time
}
