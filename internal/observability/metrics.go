// Package observability exposes Prometheus counters for the generation core.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors used across the client. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	apiRequests  *prometheus.CounterVec
	pollAttempts prometheus.Counter
	generations  *prometheus.CounterVec
	imageLookups *prometheus.CounterVec
	imageFetches *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photofx",
			Name:      "api_requests_total",
			Help:      "Backend API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		pollAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photofx",
			Name:      "poll_attempts_total",
			Help:      "Job status polls issued.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photofx",
			Name:      "generations_total",
			Help:      "Generation lifecycles by kind and final outcome.",
		}, []string{"kind", "outcome"}),
		imageLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photofx",
			Name:      "image_cache_lookups_total",
			Help:      "Image loader lookups by result (hit, miss, shared).",
		}, []string{"result"}),
		imageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photofx",
			Name:      "image_fetches_total",
			Help:      "Image network fetches by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		prometheus.NewGoCollector(),
		m.apiRequests,
		m.pollAttempts,
		m.generations,
		m.imageLookups,
		m.imageFetches,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) APIRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) PollAttempt() {
	if m == nil {
		return
	}
	m.pollAttempts.Inc()
}

func (m *Metrics) Generation(kind, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ImageLookup(result string) {
	if m == nil {
		return
	}
	m.imageLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ImageFetch(outcome string) {
	if m == nil {
		return
	}
	m.imageFetches.WithLabelValues(outcome).Inc()
}
