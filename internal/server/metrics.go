package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the HTTP adapter.
// A nil *Metrics records nothing.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	termsEmitted prometheus.Counter
	cacheLookups *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ngram",
				Name:      "requests_total",
				Help:      "HTTP requests by endpoint and status code.",
			},
			[]string{"endpoint", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ngram",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by endpoint.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		termsEmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ngram",
				Name:      "terms_emitted_total",
				Help:      "Terms returned by tokenize requests.",
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ngram",
				Name:      "term_cache_total",
				Help:      "Highlight term cache lookups by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.termsEmitted, m.cacheLookups)
	return m
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, status).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// AddTerms counts terms sent to clients.
func (m *Metrics) AddTerms(n int) {
	if m == nil {
		return
	}
	m.termsEmitted.Add(float64(n))
}

// CacheHit counts a term cache hit.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss counts a term cache miss.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}
