// Package metrics provides the Prometheus registry for woescope.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "woescope",
		Name:      "uploads_total",
		Help:      "Total number of dataset uploads by status",
	}, []string{"status"})
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "woescope",
		Name:      "analyses_total",
		Help:      "Total number of analyses by kind and outcome",
	}, []string{"kind", "outcome"})
	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "woescope",
		Name:      "cache_requests_total",
		Help:      "Total number of cache lookups by cache and result",
	}, []string{"cache", "result"})
)

// Histogram metrics
var (
	AnalysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "woescope",
		Name:      "analysis_duration_seconds",
		Help:      "Duration of analyses in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"kind"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(UploadsTotal)
		registry.MustRegister(AnalysesTotal)
		registry.MustRegister(CacheRequestsTotal)
		registry.MustRegister(AnalysisDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordUpload records an upload. status is "ok", "rejected" or "invalid".
func RecordUpload(status string) {
	UploadsTotal.WithLabelValues(status).Inc()
}

// RecordAnalysis records one analysis run.
// kind is "filter", "probability" or "woe"; outcome is "ok", "warning" or "error".
func RecordAnalysis(kind, outcome string, elapsed time.Duration) {
	AnalysesTotal.WithLabelValues(kind, outcome).Inc()
	AnalysisDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordCacheLookup records a hit or miss on the named cache.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequestsTotal.WithLabelValues(cache, result).Inc()
}
