package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/civicatlas/grant-atlas/internal/domain"
)

// tractDetail is the drill-down payload: profile plus the tract's assets
// and grant allocations.
type tractDetail struct {
	domain.TractProfile
	Assets []domain.Asset      `json:"assets"`
	Grants []domain.TractGrant `json:"grants"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleTracts returns all profile rows, optionally filtered by ?min_svi=.
func (s *Server) handleTracts(w http.ResponseWriter, r *http.Request) {
	minSVI := 0.0
	if v := r.URL.Query().Get("min_svi"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			writeError(w, http.StatusBadRequest, "min_svi must be a number in [0, 1]")
			return
		}
		minSVI = f
	}

	profiles, err := s.store.Profiles(r.Context(), minSVI)
	if err != nil {
		s.logger.Error("query profiles failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if profiles == nil {
		profiles = []domain.TractProfile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

// handleTract returns the drill-down detail for one tract.
func (s *Server) handleTract(w http.ResponseWriter, r *http.Request) {
	geoid := chi.URLParam(r, "geoid")

	profile, err := s.store.Profile(r.Context(), geoid)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown tract "+geoid)
		return
	}
	if err != nil {
		s.logger.Error("query profile failed", "geoid", geoid, "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	assets, err := s.store.Assets(r.Context(), geoid)
	if err != nil {
		s.logger.Error("query assets failed", "geoid", geoid, "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	grants, err := s.store.TractGrants(r.Context(), geoid)
	if err != nil {
		s.logger.Error("query grants failed", "geoid", geoid, "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	if assets == nil {
		assets = []domain.Asset{}
	}
	if grants == nil {
		grants = []domain.TractGrant{}
	}
	writeJSON(w, http.StatusOK, tractDetail{
		TractProfile: profile,
		Assets:       assets,
		Grants:       grants,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.store.Summary(r.Context())
	if err != nil {
		s.logger.Error("query summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
