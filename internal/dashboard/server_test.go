package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicatlas/grant-atlas/internal/dashboard"
	"github.com/civicatlas/grant-atlas/internal/domain"
	"github.com/civicatlas/grant-atlas/internal/observability"
)

// --- stub store ---

type stubStore struct {
	profiles   []domain.TractProfile
	assets     map[string][]domain.Asset
	grants     map[string][]domain.TractGrant
	summary    domain.Summary
	readyErr   error
	queryErr   error
	lastMinSVI float64
}

func (s *stubStore) Profiles(_ context.Context, minSVI float64) ([]domain.TractProfile, error) {
	s.lastMinSVI = minSVI
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []domain.TractProfile
	for _, p := range s.profiles {
		if p.OverallSVI >= minSVI {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) Profile(_ context.Context, geoid string) (domain.TractProfile, error) {
	for _, p := range s.profiles {
		if p.GEOID == geoid {
			return p, nil
		}
	}
	return domain.TractProfile{}, domain.ErrNotFound
}

func (s *stubStore) Assets(_ context.Context, geoid string) ([]domain.Asset, error) {
	return s.assets[geoid], nil
}

func (s *stubStore) TractGrants(_ context.Context, geoid string) ([]domain.TractGrant, error) {
	return s.grants[geoid], nil
}

func (s *stubStore) Summary(context.Context) (domain.Summary, error) {
	if s.queryErr != nil {
		return domain.Summary{}, s.queryErr
	}
	return s.summary, nil
}

func (s *stubStore) CheckReadiness(context.Context) error { return s.readyErr }

// --- helpers ---

func profile(geoid string, svi float64, strategy domain.Strategy) domain.TractProfile {
	return domain.TractProfile{
		GEOID:      geoid,
		Name:       "Tract " + geoid[5:],
		Geometry:   json.RawMessage(`{"type":"Polygon","coordinates":[]}`),
		OverallSVI: svi,
		Strategy:   strategy,
	}
}

func newTestServer(store *stubStore) *dashboard.Server {
	return dashboard.NewServer(":0", store,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doGet(t *testing.T, srv *dashboard.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// --- tests ---

func TestHealthz(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "healthy"}, decode[map[string]string](t, rec))
}

func TestReadyz(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(t, newTestServer(&stubStore{readyErr: errors.New("view missing")}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Contains(t, body["error"], "view missing")
}

func TestTracts(t *testing.T) {
	store := &stubStore{profiles: []domain.TractProfile{
		profile("36045010100", 0.9, domain.StrategyUrgentDesert),
		profile("36045010200", 0.2, domain.StrategyStableLowNeed),
	}}

	rec := doGet(t, newTestServer(store), "/api/tracts")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	got := decode[[]domain.TractProfile](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, "36045010100", got[0].GEOID)
	assert.Equal(t, domain.StrategyUrgentDesert, got[0].Strategy)
}

func TestTracts_MinSVIFilter(t *testing.T) {
	store := &stubStore{profiles: []domain.TractProfile{
		profile("36045010100", 0.9, domain.StrategyUrgentDesert),
		profile("36045010200", 0.2, domain.StrategyStableLowNeed),
	}}

	rec := doGet(t, newTestServer(store), "/api/tracts?min_svi=0.5")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.5, store.lastMinSVI)

	got := decode[[]domain.TractProfile](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "36045010100", got[0].GEOID)
}

func TestTracts_InvalidMinSVI(t *testing.T) {
	for _, v := range []string{"abc", "-0.2", "1.5"} {
		rec := doGet(t, newTestServer(&stubStore{}), "/api/tracts?min_svi="+v)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "min_svi=%s", v)
	}
}

func TestTracts_EmptyIsJSONArray(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/api/tracts")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestTracts_QueryError(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{queryErr: errors.New("boom")}), "/api/tracts")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTractDetail(t *testing.T) {
	store := &stubStore{
		profiles: []domain.TractProfile{profile("36045010100", 0.9, domain.StrategyUrgentDesert)},
		assets: map[string][]domain.Asset{
			"36045010100": {{ID: "a1", TractGEOID: "36045010100", Type: "Library"}},
		},
		grants: map[string][]domain.TractGrant{
			"36045010100": {{GrantID: "g1", OrgName: "Fund", Amount: 10_000, Status: "awarded", Theme: "youth", PctAllocation: 100}},
		},
	}

	rec := doGet(t, newTestServer(store), "/api/tracts/36045010100")
	assert.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		domain.TractProfile
		Assets []domain.Asset      `json:"assets"`
		Grants []domain.TractGrant `json:"grants"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "36045010100", detail.GEOID)
	require.Len(t, detail.Assets, 1)
	assert.Equal(t, "Library", detail.Assets[0].Type)
	require.Len(t, detail.Grants, 1)
	assert.Equal(t, "Fund", detail.Grants[0].OrgName)
}

func TestTractDetail_NotFound(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/api/tracts/99999999999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummary(t *testing.T) {
	store := &stubStore{summary: domain.Summary{
		TractCount: 4,
		ByStrategy: map[domain.Strategy]int{domain.StrategyUrgentDesert: 2, domain.StrategyStableLowNeed: 2},
	}}

	rec := doGet(t, newTestServer(store), "/api/summary")
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decode[domain.Summary](t, rec)
	assert.Equal(t, 4, got.TractCount)
	assert.Equal(t, 2, got.ByStrategy[domain.StrategyUrgentDesert])
}

func TestStaticIndex(t *testing.T) {
	rec := doGet(t, newTestServer(&stubStore{}), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Regional Grant Strategy")
}
