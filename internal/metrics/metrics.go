// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vocabhub"

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeCycle   = "cycle"
)

// Metrics groups the collectors used across the service
type Metrics struct {
	registry *prometheus.Registry

	FetchAttempts   *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	Resolutions     *prometheus.CounterVec
	ResolveDuration *prometheus.HistogramVec
	HierarchyNodes  *prometheus.GaugeVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Narrower graph fetch attempts by backend kind and outcome.",
		}, []string{"backend", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_lookups_total",
			Help:      "Graph cache lookups by result (hit, miss, stale).",
		}, []string{"result"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hierarchy_resolutions_total",
			Help:      "Hierarchy resolutions by vocabulary and outcome.",
		}, []string{"vocabulary", "outcome"}),
		ResolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hierarchy_resolve_duration_seconds",
			Help:      "Time spent resolving a hierarchy.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"vocabulary"}),
		HierarchyNodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hierarchy_nodes",
			Help:      "Concept count of the last resolved hierarchy.",
		}, []string{"vocabulary"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FetchAttempts,
		m.CacheLookups,
		m.Resolutions,
		m.ResolveDuration,
		m.HierarchyNodes,
	)
	return m
}

// ObserveResolution records one finished resolution
func (m *Metrics) ObserveResolution(vocabulary, outcome string, elapsed time.Duration, nodes int) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(vocabulary, outcome).Inc()
	m.ResolveDuration.WithLabelValues(vocabulary).Observe(elapsed.Seconds())
	if outcome == OutcomeSuccess {
		m.HierarchyNodes.WithLabelValues(vocabulary).Set(float64(nodes))
	}
}

// ObserveFetch records one fetch attempt
func (m *Metrics) ObserveFetch(backend string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.FetchAttempts.WithLabelValues(backend, outcome).Inc()
}

// ObserveCache records a graph cache lookup result
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
