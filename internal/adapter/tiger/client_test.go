package tiger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicatlas/grant-atlas/internal/observability"
)

const squareGeometry = `{"type":"Polygon","coordinates":[[[-75.4,44.2],[-75.35,44.2],[-75.35,44.25],[-75.4,44.25],[-75.4,44.2]]]}`

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		state:      "36",
		counties:   []string{"045", "049"},
		httpClient: &http.Client{Timeout: 5 * time.Second},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func tractFeature(geoid, name, geometry string) feature {
	return feature{
		Properties: properties{GEOID: geoid, Name: name},
		Geometry:   json.RawMessage(geometry),
	}
}

func TestClient_FetchTracts_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "STATE='36' AND COUNTY IN ('045','049')", r.URL.Query().Get("where"))
		assert.Equal(t, "GEOID,NAME", r.URL.Query().Get("outFields"))
		assert.Equal(t, "geojson", r.URL.Query().Get("f"))

		resp := featureCollection{Features: []feature{
			tractFeature("36045010100", "101", squareGeometry),
			tractFeature("36049020200", "202", squareGeometry),
		}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	tracts, err := testClient(srv.URL).FetchTracts(context.Background())
	require.NoError(t, err)
	require.Len(t, tracts, 2)

	assert.Equal(t, "36045010100", tracts[0].GEOID)
	assert.Equal(t, "Tract 101", tracts[0].Name)
	assert.JSONEq(t, squareGeometry, string(tracts[0].Geometry))
}

func TestClient_FetchTracts_FiltersInvalidFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := featureCollection{Features: []feature{
			tractFeature("36045010100", "101", squareGeometry),
			// Block group: 12-digit GEOID.
			tractFeature("360450101001", "101.1", squareGeometry),
			// Point geometry is not a tract boundary.
			tractFeature("36045010300", "103", `{"type":"Point","coordinates":[-75.4,44.2]}`),
			// Geometry that is valid JSON but not a valid polygon.
			tractFeature("36045010400", "104", `{"type":"Polygon","coordinates":"oops"}`),
			// No geometry at all.
			{Properties: properties{GEOID: "36045010500", Name: "105"}},
		}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	tracts, err := testClient(srv.URL).FetchTracts(context.Background())
	require.NoError(t, err)
	require.Len(t, tracts, 1)
	assert.Equal(t, "36045010100", tracts[0].GEOID)
}

func TestClient_FetchTracts_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchTracts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_FetchTracts_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "not json") //nolint:errcheck
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchTracts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestValidPolygon(t *testing.T) {
	assert.True(t, validPolygon(json.RawMessage(squareGeometry)))
	assert.False(t, validPolygon(nil))
	assert.False(t, validPolygon(json.RawMessage(`{"type":"Point","coordinates":[0,0]}`)))
}
