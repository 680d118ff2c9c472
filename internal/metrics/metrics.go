// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "suspect_registry"

// Metrics holds Prometheus metrics for the service
type Metrics struct {
	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	IdentityCache      *prometheus.CounterVec
	EnrichmentDuration *prometheus.HistogramVec

	registry prometheus.Registerer
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		IdentityCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "identity_cache",
				Name:      "lookups_total",
				Help:      "Identity cache lookups by operation and result",
			},
			[]string{"op", "result"},
		),
		EnrichmentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "enrichment",
				Name:      "duration_seconds",
				Help:      "Time to enrich a profile or a page of profiles",
				Buckets:   prometheus.ExponentialBucketsRange(0.001, 10, 15),
			},
			[]string{"scope"},
		),
		registry: reg,
	}
}

// ObserveCache counts an identity cache lookup
func (m *Metrics) ObserveCache(op string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.IdentityCache.WithLabelValues(op, result).Inc()
}

// ObserveEnrichment records how long enriching scope took
func (m *Metrics) ObserveEnrichment(scope string, d time.Duration) {
	m.EnrichmentDuration.WithLabelValues(scope).Observe(d.Seconds())
}

// RegisterDB exports connection pool statistics of db
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Middleware records request count, duration and concurrency. Routes are
// labelled by their pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
