// Package observability exports content store metrics to Prometheus.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromRecorder records store operation outcomes as a counter by result and a
// duration histogram, both labelled by operation.
type PromRecorder struct {
	registry  *prometheus.Registry
	results   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPromRecorder registers the collectors on a fresh registry.
func NewPromRecorder() *PromRecorder {
	r := &PromRecorder{
		registry: prometheus.NewRegistry(),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkadmin",
			Subsystem: "content",
			Name:      "operations_total",
			Help:      "Content store operations by result.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "parkadmin",
			Subsystem: "content",
			Name:      "operation_duration_seconds",
			Help:      "Content store operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"operation"}),
	}
	r.registry.MustRegister(r.results, r.durations)
	return r
}

// Observe records a store operation outcome.
func (r *PromRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	r.results.WithLabelValues(operation, result).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Registry returns the registry holding the recorder's collectors.
func (r *PromRecorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *PromRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
