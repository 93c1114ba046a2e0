// Package domain models US census tracts and the funding-strategy
// classification built on top of them.
//
// # Data Sources
//
// Tract boundaries come from the Census Bureau TIGERweb ArcGIS REST API
// (tigerWMS_Current MapServer, layer 8, "Census Tracts"), fetched as GeoJSON.
// Demographics come from the ACS 5-Year Data Profile API
// (api.census.gov/data/<year>/acs/acs5/profile). Social vulnerability comes
// from a locally bundled CDC/ATSDR SVI CSV export.
//
// # GEOID Conventions
//
//	State FIPS:  2 digits, e.g. "36" (New York)
//	County FIPS: 3 digits, e.g. "045" (Jefferson)
//	Tract GEOID: 11 digits = state + county + 6-digit tract code.
//
// TIGERweb queries can return features other than tracts; anything whose
// GEOID is not exactly 11 digits is dropped. The ACS API returns state,
// county, and tract codes as separate trailing columns which must be
// concatenated to rebuild the GEOID.
//
// # SVI Conventions
//
// The CDC overall score (RPL_THEMES) is a percentile rank in [0, 1].
// -999 is the CDC sentinel for missing data; any value outside [0, 1] is
// treated as missing. Tracts absent from the CSV default to 0.5 (average).
//
// # Strategy Classification
//
// Each tract is scored on two axes, both expressed as percentile ranks in
// [0, 100] across the loaded region:
//
//	Need:     percentile of the overall SVI score.
//	Capacity: percentile of civic-asset density (assets per 1,000
//	          residents; raw count for unpopulated tracts).
//
// A 2x2 split at the 50th percentile yields exactly one label per tract:
//
//	need >= 50, capacity <  50  ->  Urgent Desert
//	need >= 50, capacity >= 50  ->  High-Capacity Hub
//	need <  50, capacity >= 50  ->  Stable / Low Need
//	need <  50, capacity <  50  ->  General Opportunity
//
// [Classify] is the single source of truth for this mapping; the SQL view in
// the store mirrors it and the validate command cross-checks the two.
//
// # Asset Simulation
//
// Real asset registries are not wired in yet, so civic assets (and the
// nonprofit org/grant registry) are simulated per tract with counts weighted
// by SVI: high-vulnerability tracts skew toward zero assets, low-vulnerability
// tracts toward several. Simulation is seedable so fixtures are reproducible.
package domain
