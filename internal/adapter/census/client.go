// Package census fetches demographic attributes from the ACS 5-Year Data
// Profile API.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/civicatlas/grant-atlas/internal/config"
	"github.com/civicatlas/grant-atlas/internal/domain"
	"github.com/civicatlas/grant-atlas/internal/observability"
)

// acsVariables are requested in this exact order; parsing below indexes
// into the response row positionally.
//
//	DP05_0001E  total population
//	DP05_0019E  under 18
//	DP05_0024E  65 and over
//	DP05_0037E  white
//	DP05_0038E  black
//	DP05_0071E  hispanic or latino
//	DP03_0099PE uninsured (already a percentage)
//	DP02_0153PE broadband subscription (already a percentage)
const acsVariables = "DP05_0001E,DP05_0019E,DP05_0024E,DP05_0037E,DP05_0038E,DP05_0071E,DP03_0099PE,DP02_0153PE"

// Client queries the ACS Data Profile API.
type Client struct {
	baseURL    string
	state      string
	counties   map[string]bool
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an ACS client scoped to the configured state and counties.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	counties := make(map[string]bool, len(cfg.CountyFIPS))
	for _, c := range cfg.CountyFIPS {
		counties[c] = true
	}
	return &Client{
		baseURL:  cfg.ACSURL,
		state:    cfg.StateFIPS,
		counties: counties,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchProfiles retrieves demographic profiles for every tract in the state,
// keyed by 11-digit GEOID. Rows outside the configured counties or with zero
// population are skipped.
func (c *Client) FetchProfiles(ctx context.Context) (map[string]domain.Demographics, error) {
	params := url.Values{
		"get": {acsVariables},
		"for": {"tract:*"},
		"in":  {"state:" + c.state},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FetchErrors.WithLabelValues("acs").Inc()
		return nil, fmt.Errorf("acs request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.FetchDuration.WithLabelValues("acs").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.FetchErrors.WithLabelValues("acs").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("acs API error: status %d: %s", resp.StatusCode, body)
	}

	// The ACS API returns an array of string arrays; row 0 is the header.
	var rows [][]string
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		c.metrics.FetchErrors.WithLabelValues("acs").Inc()
		return nil, fmt.Errorf("decode acs response: %w", err)
	}
	if len(rows) < 2 {
		return map[string]domain.Demographics{}, nil
	}

	profiles := make(map[string]domain.Demographics)
	for _, row := range rows[1:] {
		geoid, demo, ok := c.parseRow(row)
		if !ok {
			continue
		}
		profiles[geoid] = demo
	}

	c.metrics.ACSRowsFetched.Add(float64(len(profiles)))
	c.logger.Info("fetched acs demographics", "state", c.state, "rows", len(rows)-1, "kept", len(profiles))
	return profiles, nil
}

// parseRow converts one ACS data row. The geographic identifiers (state,
// county, tract) are the trailing three columns and are concatenated to
// rebuild the GEOID.
func (c *Client) parseRow(row []string) (string, domain.Demographics, bool) {
	// 8 variables + state + county + tract.
	if len(row) < 11 {
		return "", domain.Demographics{}, false
	}
	n := len(row)
	state, county, tract := row[n-3], row[n-2], row[n-1]
	if state != c.state || !c.counties[county] {
		return "", domain.Demographics{}, false
	}

	total := intOrZero(row[0])
	if total == 0 {
		return "", domain.Demographics{}, false
	}

	pct := func(s string) float64 {
		return math.Round(float64(intOrZero(s))/float64(total)*1000) / 10
	}

	return state + county + tract, domain.Demographics{
		TotalPop:     total,
		PctUnder18:   pct(row[1]),
		PctSenior:    pct(row[2]),
		PctWhite:     pct(row[3]),
		PctBlack:     pct(row[4]),
		PctHispanic:  pct(row[5]),
		PctUninsured: floatOrZero(row[6]),
		PctBroadband: floatOrZero(row[7]),
	}, true
}

func intOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func floatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
