// Package tiger fetches census tract boundaries from the Census Bureau
// TIGERweb ArcGIS REST API.
package tiger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/civicatlas/grant-atlas/internal/config"
	"github.com/civicatlas/grant-atlas/internal/domain"
	"github.com/civicatlas/grant-atlas/internal/observability"
)

const geoidLen = 11 // state(2) + county(3) + tract(6)

// Client queries the TIGERweb MapServer layer for tract polygons.
type Client struct {
	baseURL    string
	state      string
	counties   []string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a TIGERweb client scoped to the configured state and counties.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  cfg.TigerURL,
		state:    cfg.StateFIPS,
		counties: cfg.CountyFIPS,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchTracts retrieves tract boundaries as GeoJSON and returns one Tract per
// valid feature. Features without an 11-digit GEOID or with geometry that is
// not a valid polygon are dropped, not reported.
func (c *Client) FetchTracts(ctx context.Context) ([]domain.Tract, error) {
	quoted := make([]string, len(c.counties))
	for i, county := range c.counties {
		quoted[i] = fmt.Sprintf("'%s'", county)
	}
	params := url.Values{
		"where":     {fmt.Sprintf("STATE='%s' AND COUNTY IN (%s)", c.state, strings.Join(quoted, ","))},
		"outFields": {"GEOID,NAME"},
		"f":         {"geojson"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FetchErrors.WithLabelValues("tigerweb").Inc()
		return nil, fmt.Errorf("tigerweb request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.FetchDuration.WithLabelValues("tigerweb").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.FetchErrors.WithLabelValues("tigerweb").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tigerweb API error: status %d: %s", resp.StatusCode, body)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		c.metrics.FetchErrors.WithLabelValues("tigerweb").Inc()
		return nil, fmt.Errorf("decode tigerweb response: %w", err)
	}

	tracts := make([]domain.Tract, 0, len(fc.Features))
	for _, f := range fc.Features {
		geoid := f.Properties.GEOID
		if len(geoid) != geoidLen {
			continue
		}
		if !validPolygon(f.Geometry) {
			c.logger.Warn("skipping tract with invalid geometry", "geoid", geoid)
			continue
		}
		tracts = append(tracts, domain.Tract{
			GEOID:    geoid,
			Name:     "Tract " + f.Properties.Name,
			Geometry: f.Geometry,
		})
	}

	c.metrics.TractsFetched.Add(float64(len(tracts)))
	c.logger.Info("fetched tract boundaries",
		"state", c.state, "counties", c.counties,
		"features", len(fc.Features), "kept", len(tracts))
	return tracts, nil
}

// validPolygon reports whether raw decodes to a GeoJSON Polygon or MultiPolygon.
func validPolygon(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return false
	}
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return true
	default:
		return false
	}
}

// TIGERweb GeoJSON response types. Only the fields we read.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties      `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type properties struct {
	GEOID string `json:"GEOID"`
	Name  string `json:"NAME"`
}
