package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by
// the ETL loader and the dashboard server. Each binary touches its own
// subset; registration covers everything so dashboards stay uniform.
type Metrics struct {
	// ETL metrics.
	TractsFetched   prometheus.Counter
	ACSRowsFetched  prometheus.Counter
	SVIRowsMapped   prometheus.Counter
	AssetsSimulated prometheus.Counter
	TractsLoaded    prometheus.Counter
	ETLRunning      prometheus.Gauge
	FetchDuration   *prometheus.HistogramVec // label: source={tigerweb,acs}
	FetchErrors     *prometheus.CounterVec   // label: source={tigerweb,acs,svi}
	LoadDuration    prometheus.Histogram

	// Dashboard metrics.
	HTTPRequests        *prometheus.CounterVec // labels: route, status
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TractsFetched,
		m.ACSRowsFetched,
		m.SVIRowsMapped,
		m.AssetsSimulated,
		m.TractsLoaded,
		m.ETLRunning,
		m.FetchDuration,
		m.FetchErrors,
		m.LoadDuration,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TractsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grant_atlas",
			Name:      "tracts_fetched_total",
			Help:      "Census tracts fetched from TIGERweb.",
		}),
		ACSRowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grant_atlas",
			Name:      "acs_rows_fetched_total",
			Help:      "ACS demographic profile rows kept after filtering.",
		}),
		SVIRowsMapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grant_atlas",
			Name:      "svi_rows_mapped_total",
			Help:      "SVI scores mapped from the local CSV.",
		}),
		AssetsSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grant_atlas",
			Name:      "assets_simulated_total",
			Help:      "Simulated civic asset points generated.",
		}),
		TractsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grant_atlas",
			Name:      "tracts_loaded_total",
			Help:      "Tract rows written to the database.",
		}),
		ETLRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grant_atlas",
			Name:      "etl_running",
			Help:      "1 while an ETL run is in progress, 0 otherwise.",
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grant_atlas",
			Name:      "fetch_duration_seconds",
			Help:      "External API fetch duration by source.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grant_atlas",
			Name:      "fetch_errors_total",
			Help:      "External fetch failures by source.",
		}, []string{"source"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grant_atlas",
			Name:      "load_duration_seconds",
			Help:      "Duration of the database load transaction.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grant_atlas",
			Name:      "http_requests_total",
			Help:      "Dashboard HTTP requests by route and status.",
		}, []string{"route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grant_atlas",
			Name:      "http_request_duration_seconds",
			Help:      "Dashboard HTTP request duration by route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"route"}),
	}
}
