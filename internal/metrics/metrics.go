// Package metrics holds the Prometheus collectors shared by the planner,
// the backends and the HTTP API. Collectors register with the default
// registry at init.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueriesTotal counts planner executions by operation and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esquery_queries_total",
			Help: "Total number of logical queries executed by the planner",
		},
		[]string{"operation", "status"},
	)
	// QueryDuration is the latency of planner executions, backend call included.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esquery_query_duration_seconds",
			Help:    "Planner execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	// WindowClamps counts requests whose paging was clamped to the result window.
	WindowClamps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "esquery_window_clamps_total",
			Help: "Total number of requests whose skip+take was clamped to the result window",
		},
	)
	// CountClamps counts count results reported as the result window.
	CountClamps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "esquery_count_clamps_total",
			Help: "Total number of counts clamped to the result window",
		},
	)
	// BackendRequestsTotal counts backend calls.
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esquery_backend_requests_total",
			Help: "Total number of backend requests",
		},
		[]string{"backend", "operation", "status"},
	)
	// BackendRequestDuration is the latency of backend calls.
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esquery_backend_request_duration_seconds",
			Help:    "Backend request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
	// HTTPRequestsTotal counts API requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esquery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// HTTPRequestDuration is the latency of API requests.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esquery_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Status labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// StatusOf maps an error to a status label.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// ObserveQuery records one planner execution that started at start.
func ObserveQuery(operation string, start time.Time, err error) {
	QueriesTotal.WithLabelValues(operation, StatusOf(err)).Inc()
	QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveBackend records one backend call that started at start.
func ObserveBackend(backend, operation string, start time.Time, err error) {
	BackendRequestsTotal.WithLabelValues(backend, operation, StatusOf(err)).Inc()
	BackendRequestDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
