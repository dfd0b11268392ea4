// Package metrics owns the Prometheus collectors for the service. All record
// methods are safe to call on a nil *Metrics so packages can be used without
// instrumentation in tests and from the CLI.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mintari"

// Metrics groups every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transforms      *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	mints           *prometheus.CounterVec
	sponsorEvents   *prometheus.CounterVec
}

// New creates a private registry with Go and process collectors plus the
// application collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
		transforms: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transform",
			Name:      "results_total",
			Help:      "Image transformations by provider and outcome",
		}, []string{"provider", "outcome"}),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "uploads_total",
			Help:      "Storage upload attempts by provider and outcome",
		}, []string{"provider", "outcome"}),
		mints: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "mints_total",
			Help:      "Mint attempts by outcome",
		}, []string{"outcome"}),
		sponsorEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "sponsor_events_total",
			Help:      "Sponsor events recorded by type",
		}, []string{"type"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestCounter.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) ObserveTransform(provider, outcome string) {
	if m == nil {
		return
	}
	m.transforms.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveUpload(provider, outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveMint(outcome string) {
	if m == nil {
		return
	}
	m.mints.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSponsorEvent(eventType string) {
	if m == nil {
		return
	}
	m.sponsorEvents.WithLabelValues(eventType).Inc()
}
