// Package metrics exposes Prometheus instrumentation for the perspecta pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perspecta"

// Metrics holds all pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Request metrics
	Requests      *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Provider metrics
	ProviderErrors *prometheus.CounterVec
	Fallbacks      *prometheus.CounterVec

	// Search metrics
	SearchResults  *prometheus.CounterVec
	SearchFailures *prometheus.CounterVec

	// HTTP boundary
	HTTPRequests *prometheus.CounterVec
}

// New creates collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: reg}
	initRequestMetrics(m, promauto.With(reg))
	initProviderMetrics(m, promauto.With(reg))
	initSearchMetrics(m, promauto.With(reg))
	initHTTPMetrics(m, promauto.With(reg))
	return m
}

func initRequestMetrics(m *Metrics, f promauto.Factory) {
	m.Requests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Claims checked, by outcome (success, rejected, no_results, error)",
	}, []string{"outcome"})

	m.StageDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent per pipeline stage",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"stage"})
}

func initProviderMetrics(m *Metrics, f promauto.Factory) {
	m.ProviderErrors = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_errors_total",
		Help:      "Generation and embedding provider failures by component and error kind",
	}, []string{"component", "kind"})

	m.Fallbacks = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallbacks_total",
		Help:      "Times a component degraded to its deterministic fallback",
	}, []string{"component"})
}

func initSearchMetrics(m *Metrics, f promauto.Factory) {
	m.SearchResults = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_results_total",
		Help:      "Documents returned by search backends",
	}, []string{"backend"})

	m.SearchFailures = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_failures_total",
		Help:      "Search calls that failed or timed out",
	}, []string{"backend"})
}

func initHTTPMetrics(m *Metrics, f promauto.Factory) {
	m.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served",
	}, []string{"method", "path", "status"})
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) ProviderError(component, kind string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(component, kind).Inc()
}

func (m *Metrics) Fallback(component string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(component).Inc()
}

func (m *Metrics) SearchReturned(backend string, n int) {
	if m == nil {
		return
	}
	m.SearchResults.WithLabelValues(backend).Add(float64(n))
}

func (m *Metrics) SearchFailed(backend string) {
	if m == nil {
		return
	}
	m.SearchFailures.WithLabelValues(backend).Inc()
}

func (m *Metrics) HTTPRequest(method, path string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
