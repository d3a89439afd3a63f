// Package metrics defines the Prometheus collectors used by the index
// builder and the query evaluators, and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for irkit.
type Metrics struct {
	QueriesTotal       *prometheus.CounterVec
	QueryLatency       *prometheus.HistogramVec
	QueryResultsCount  *prometheus.HistogramVec
	IndexBuildDuration *prometheus.HistogramVec
	IndexTerms         *prometheus.GaugeVec
	DocsIndexed        prometheus.Gauge
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationF1       *prometheus.HistogramVec

	// Requests served by the metrics and health endpoints.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry or a fresh
// registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ir_queries_total",
				Help: "Total queries by search mode and outcome (hit, zero_result, error).",
			},
			[]string{"mode", "outcome"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ir_query_latency_seconds",
				Help:    "Query evaluation latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),
		QueryResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ir_query_results_count",
				Help:    "Number of documents returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 1000},
			},
			[]string{"mode"},
		),
		IndexBuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ir_index_build_duration_seconds",
				Help:    "Index construction time by index type.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"index"},
		),
		IndexTerms: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ir_index_terms",
				Help: "Vocabulary size per index type.",
			},
			[]string{"index"},
		),
		DocsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ir_docs_indexed",
				Help: "Documents in the most recently built or loaded corpus.",
			},
		),
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ir_evaluations_total",
				Help: "Total relevance evaluations by search mode.",
			},
			[]string{"mode"},
		),
		EvaluationF1: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ir_evaluation_f1",
				Help:    "F1 score of evaluated queries.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"mode"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ir_http_requests_total",
				Help: "Requests to the metrics and health endpoints by path and status code.",
			},
			[]string{"path", "code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ir_http_request_duration_seconds",
				Help:    "Latency of the metrics and health endpoints.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
	}

	reg.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.IndexBuildDuration,
		m.IndexTerms,
		m.DocsIndexed,
		m.EvaluationsTotal,
		m.EvaluationF1,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
