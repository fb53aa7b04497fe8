// Package metrics exposes Prometheus instrumentation for the HTTP
// surface and the invoice lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts requests by method, route pattern and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boqflow_http_requests_total",
		Help: "HTTP requests processed, labeled by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by method and route pattern
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "boqflow_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// LifecycleTransitions counts invoice lifecycle transitions by action
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boqflow_lifecycle_transitions_total",
		Help: "Invoice lifecycle transitions applied, labeled by action.",
	}, []string{"action"})
)

// Handler returns the /metrics endpoint handler
func Handler() http.Handler {
	return promhttp.Handler()
}
