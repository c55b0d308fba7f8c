// Package metrics exposes Prometheus collectors for API traffic, event
// dispatch and cache efficiency.
package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "twitter"

// Metrics holds every collector the client records into.
type Metrics struct {
	APIRequests   *prometheus.CounterVec
	Events        *prometheus.CounterVec
	HandlerErrors *prometheus.CounterVec
	Unrecognized  prometheus.Counter
	CacheLookups  *prometheus.CounterVec

	WebhookDuration *prometheus.HistogramVec
	WebhookRequests *prometheus.CounterVec
}

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// New creates and registers all collectors on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "events_total",
			Help:      "Total number of dispatched events, by channel.",
		}, []string{"channel"}),
		HandlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "handler_errors_total",
			Help:      "Total number of handler failures, by channel.",
		}, []string{"channel"}),
		Unrecognized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "unrecognized_events_total",
			Help:      "Total number of webhook deliveries with an unknown event family.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of cache lookups, by cache and result.",
		}, []string{"cache", "result"}),
		WebhookDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "request_duration_seconds",
			Help:      "Duration of webhook requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status_code"}),
		WebhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Total number of webhook requests.",
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(
		m.APIRequests, m.Events, m.HandlerErrors, m.Unrecognized,
		m.CacheLookups, m.WebhookDuration, m.WebhookRequests,
	)
	return m
}

// RecordAPICall matches the client's MetricsHook signature.
func (m *Metrics) RecordAPICall(endpoint string, success, rateLimited bool) {
	outcome := "error"
	switch {
	case rateLimited:
		outcome = "rate_limited"
	case success:
		outcome = "success"
	}
	m.APIRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordCacheLookup matches cache.Observer.
func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

// Middleware returns an Echo middleware that records webhook request metrics.
// It skips /metrics and /health/* endpoints.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "/metrics" || strings.HasPrefix(path, "/health/") {
				return next(c)
			}

			timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
				status := strconv.Itoa(c.Response().Status)
				m.WebhookDuration.WithLabelValues(c.Request().Method, status).Observe(v)
				m.WebhookRequests.WithLabelValues(c.Request().Method, status).Inc()
			}))

			err := next(c)
			timer.ObserveDuration()
			return err
		}
	}
}
