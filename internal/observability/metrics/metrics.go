// Package metrics exposes prometheus instrumentation for the billing engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Registry *prometheus.Registry

	usageEvents    *prometheus.CounterVec
	usageRejected  prometheus.Counter
	overageReports *prometheus.CounterVec
	tenantsReset   prometheus.Counter
	resetDuration  prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		usageEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_usage_events_total",
			Help: "Consumption events accepted by the usage meter.",
		}, []string{"classification", "state"}),
		usageRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_usage_events_rejected_total",
			Help: "Consumption events rejected as invalid.",
		}),
		overageReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_overage_reports_total",
			Help: "Overage reports sent to the billing processor.",
		}, []string{"status"}),
		tenantsReset: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_tenants_reset_total",
			Help: "Tenant usage counters reset at cycle boundaries.",
		}),
		resetDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "frontdesk_cycle_reset_duration_seconds",
			Help:    "Duration of full billing-cycle reset runs.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frontdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.usageEvents,
		m.usageRejected,
		m.overageReports,
		m.tenantsReset,
		m.resetDuration,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

func (m *Metrics) IncUsageEvent(classification, state string) {
	if m == nil {
		return
	}
	m.usageEvents.WithLabelValues(classification, state).Inc()
}

func (m *Metrics) IncUsageRejected() {
	if m == nil {
		return
	}
	m.usageRejected.Inc()
}

func (m *Metrics) IncOverageReport(status string) {
	if m == nil {
		return
	}
	m.overageReports.WithLabelValues(status).Inc()
}

func (m *Metrics) AddTenantsReset(n int) {
	if m == nil {
		return
	}
	m.tenantsReset.Add(float64(n))
}

func (m *Metrics) ObserveResetDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.resetDuration.Observe(d.Seconds())
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
