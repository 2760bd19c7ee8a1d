// Package telemetry provides observability primitives for the ridecache service.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ActiveRequests   prometheus.Gauge
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	InvalidatedKeys  *prometheus.CounterVec
	WarmedEntries    *prometheus.CounterVec
	EventQueueLength prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridecache",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "ridecache",
			Name:                            "request_duration_seconds",
			Help:                            "HTTP request duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ridecache",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),

		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridecache",
			Name:      "cache_hits_total",
			Help:      "Total cache hits per entity kind.",
		}, []string{"kind"}),

		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridecache",
			Name:      "cache_misses_total",
			Help:      "Total cache misses per entity kind.",
		}, []string{"kind"}),

		InvalidatedKeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridecache",
			Name:      "invalidated_keys_total",
			Help:      "Total cache keys deleted by the invalidation engine.",
		}, []string{"kind", "op"}),

		WarmedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridecache",
			Name:      "warmed_entries_total",
			Help:      "Total cache entries written by warm-up.",
		}, []string{"kind"}),

		EventQueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ridecache",
			Name:      "event_queue_length",
			Help:      "Current number of queued cache events.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.CacheHits,
		m.CacheMisses,
		m.InvalidatedKeys,
		m.WarmedEntries,
		m.EventQueueLength,
	)

	return m
}
