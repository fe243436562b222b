// Package monitoring exposes Prometheus metrics for analyses, providers, the
// result cache and the HTTP API, and runs a background health checker.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "planpilot"

// Analysis outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeInput    = "input_error"
	OutcomeUpstream = "upstream_error"
	OutcomeCached   = "cached"
)

var providerBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15}

// Metrics holds the registered collectors. Every method is safe to call on a
// nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	analyses         *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	providerErrors   *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	predictions      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	upstreamOpen     *prometheus.GaugeVec
	dbUp             prometheus.Gauge
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "analyses_total", Help: "Analyses by outcome.",
		}, []string{"outcome"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "provider_duration_seconds", Help: "Data provider call latency.",
			Buckets: providerBuckets,
		}, []string{"provider"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "provider_errors_total", Help: "Failed data provider calls.",
		}, []string{"provider"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_lookups_total", Help: "Result cache lookups by result.",
		}, []string{"backend", "result"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "predictions_total", Help: "Approval predictions by mode.",
		}, []string{"mode"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		upstreamOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "upstream_circuit_open", Help: "1 when the upstream circuit breaker is not closed.",
		}, []string{"service"}),
		dbUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "db_up", Help: "1 when the database answers.",
		}),
	}
	reg.MustRegister(
		m.analyses, m.providerDuration, m.providerErrors, m.cacheLookups,
		m.predictions, m.httpRequests, m.httpDuration, m.upstreamOpen, m.dbUp,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Analysis counts one analysis outcome.
func (m *Metrics) Analysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

// Provider records the latency of one provider call and whether it failed.
func (m *Metrics) Provider(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.providerDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.providerErrors.WithLabelValues(name).Inc()
	}
}

// CacheLookup counts a cache hit or miss for backend.
func (m *Metrics) CacheLookup(backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(backend, result).Inc()
}

// Prediction counts a prediction by mode.
func (m *Metrics) Prediction(mode string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(mode).Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// UpstreamOpen sets whether service's breaker is currently rejecting calls.
func (m *Metrics) UpstreamOpen(service string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.upstreamOpen.WithLabelValues(service).Set(v)
}

// DBUp sets the database health gauge.
func (m *Metrics) DBUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.dbUp.Set(1)
		return
	}
	m.dbUp.Set(0)
}
