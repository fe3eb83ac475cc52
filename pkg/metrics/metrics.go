// Package metrics defines the Prometheus collectors used by the indexer and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the indexer.
type Metrics struct {
	FilesIndexedTotal    *prometheus.CounterVec
	FilesErasedTotal     prometheus.Counter
	TraversalErrorsTotal *prometheus.CounterVec
	QueriesTotal         *prometheus.CounterVec
	QueryLatency         prometheus.Histogram
	QueryResultsCount    prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	IndexedTerms         prometheus.Gauge
	IndexedPaths         prometheus.Gauge
	StrategySwitches     *prometheus.CounterVec

	registry prometheus.Gatherer
}

// New creates all collectors and registers them with reg. A nil reg gets a
// private registry, which keeps tests and multiple engines from colliding on
// the global default.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		FilesIndexedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textindex_files_indexed_total",
				Help: "Files submitted for indexing by outcome (indexed, skipped, error).",
			},
			[]string{"status"},
		),
		FilesErasedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textindex_files_erased_total",
				Help: "Total file paths erased from the index.",
			},
		),
		TraversalErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textindex_traversal_errors_total",
				Help: "Errors raised while indexing or erasing a path, by operation and kind.",
			},
			[]string{"op", "kind"},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textindex_queries_total",
				Help: "Total queries by result type (hit, zero_result).",
			},
			[]string{"result_type"},
		),
		QueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "textindex_query_latency_seconds",
				Help:    "Query latency in seconds.",
				Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		QueryResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "textindex_query_results_count",
				Help:    "Number of paths returned per query.",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 1000},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textindex_cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textindex_cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		IndexedTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "textindex_terms",
				Help: "Distinct normalised terms currently in the index.",
			},
		),
		IndexedPaths: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "textindex_paths",
				Help: "Distinct file paths currently in the index.",
			},
		),
		StrategySwitches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textindex_strategy_switches_total",
				Help: "Tokenizer strategy changes by target strategy.",
			},
			[]string{"strategy"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.FilesIndexedTotal,
		m.FilesErasedTotal,
		m.TraversalErrorsTotal,
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.IndexedTerms,
		m.IndexedPaths,
		m.StrategySwitches,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
