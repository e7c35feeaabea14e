// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	StoreRequests      *prometheus.CounterVec
	BillsSubmitted     *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	RateLimited        prometheus.Counter
	SuspiciousRequests prometheus.Counter
	RateLimitClients   prometheus.GaugeFunc
	rateLimitClientsFn func() float64
}

// New registers every collector on a private registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		StoreRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "milkbill",
			Name:      "store_requests_total",
			Help:      "Requests made to the bill store by operation and outcome.",
		}, []string{"operation", "outcome"}),
		BillsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "milkbill",
			Name:      "bills_submitted_total",
			Help:      "Bill submissions by outcome.",
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "milkbill",
			Name:      "events_published_total",
			Help:      "Bill events published to AMQP by type and outcome.",
		}, []string{"type", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "milkbill",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "milkbill",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "milkbill",
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		SuspiciousRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "milkbill",
			Name:      "suspicious_requests_total",
			Help:      "Requests matching a suspicious pattern.",
		}),
	}
	m.RateLimitClients = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "milkbill",
		Name:      "rate_limit_clients",
		Help:      "Clients currently tracked by the rate limiter.",
	}, func() float64 {
		if m.rateLimitClientsFn == nil {
			return 0
		}
		return m.rateLimitClientsFn()
	})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.StoreRequests,
		m.BillsSubmitted,
		m.EventsPublished,
		m.HTTPRequests,
		m.HTTPDuration,
		m.RateLimited,
		m.SuspiciousRequests,
		m.RateLimitClients,
	)
	return m
}

// TrackRateLimitClients sets the source of the rate_limit_clients gauge.
func (m *Metrics) TrackRateLimitClients(fn func() int) {
	m.rateLimitClientsFn = func() float64 { return float64(fn()) }
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveStore records one store call.
func (m *Metrics) ObserveStore(op string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.StoreRequests.WithLabelValues(op, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
