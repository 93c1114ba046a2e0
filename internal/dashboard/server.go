// Package dashboard serves the tract map UI and its JSON API from the
// loaded SQLite database.
package dashboard

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civicatlas/grant-atlas/internal/domain"
	"github.com/civicatlas/grant-atlas/internal/observability"
)

//go:embed static
var staticFiles embed.FS

// ProfileStore is the read surface the dashboard needs from the store.
type ProfileStore interface {
	Profiles(ctx context.Context, minSVI float64) ([]domain.TractProfile, error)
	Profile(ctx context.Context, geoid string) (domain.TractProfile, error)
	Assets(ctx context.Context, geoid string) ([]domain.Asset, error)
	TractGrants(ctx context.Context, geoid string) ([]domain.TractGrant, error)
	Summary(ctx context.Context) (domain.Summary, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard UI, JSON API, health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	store      ProfileStore
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the dashboard HTTP server.
func NewServer(addr string, store ProfileStore, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/tracts", s.handleTracts)
		r.Get("/tracts/{geoid}", s.handleTract)
		r.Get("/summary", s.handleSummary)
	})

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err) // embedded tree is fixed at compile time
	}
	r.Handle("/*", http.FileServer(http.FS(static)))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("dashboard server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// instrument records request counts and durations per route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
