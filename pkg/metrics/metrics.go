// Package metrics defines the Prometheus collectors for indexing and search
// and exposes an HTTP handler for scraping. Every series is prefixed vsm_.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vsm"

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// SearchQueriesTotal is labelled by result_type: hit, zero_result or
	// error.
	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount *prometheus.HistogramVec

	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CircuitBreakerState *prometheus.GaugeVec

	DocsIndexedTotal   prometheus.Counter
	IndexTerms         prometheus.Gauge
	IndexDocuments     prometheus.Gauge
	IndexBuildDuration prometheus.Histogram

	AnalyticsDropped prometheus.Counter
}

// New creates the collectors and registers them with reg. Tests pass a
// fresh prometheus.NewRegistry(); binaries pass prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http",
			Name:    "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "requests_in_flight",
			Help: "HTTP requests being served.",
		}),

		SearchQueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "search",
			Name: "queries_total",
			Help: "Search queries by result type.",
		}, []string{"result_type"}),
		SearchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "search",
			Name:    "latency_seconds",
			Help:    "Search latency including the feedback pass.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"cache_status"}),
		SearchResultsCount: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "search",
			Name:    "results",
			Help:    "Ranked documents per pass.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
		}, []string{"pass"}),

		CacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache",
			Name: "hits_total",
			Help: "Query cache hits.",
		}),
		CacheMissesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache",
			Name: "misses_total",
			Help: "Query cache misses.",
		}),
		CircuitBreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open).",
		}, []string{"name"}),

		DocsIndexedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "index",
			Name: "documents_ingested_total",
			Help: "Documents ingested into the index builder.",
		}),
		IndexTerms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "index",
			Name: "terms",
			Help: "Distinct terms in the index.",
		}),
		IndexDocuments: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "index",
			Name: "documents",
			Help: "Documents in the index.",
		}),
		IndexBuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "index",
			Name:    "build_duration_seconds",
			Help:    "Wall time of a full collection indexing run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		AnalyticsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "analytics",
			Name: "events_dropped_total",
			Help: "Analytics events dropped because the buffer was full.",
		}),
	}
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
