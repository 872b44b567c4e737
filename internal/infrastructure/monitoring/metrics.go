package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Component store metrics
	ComponentsTotal prometheus.Gauge
	ComponentSaves  prometheus.Counter

	// Surface metrics
	SurfaceRenders   prometheus.Counter
	SurfaceErrors    prometheus.Counter
	RenderDuration   prometheus.Histogram
	MutationsApplied prometheus.Counter
	MutationsDropped prometheus.Counter

	// Bridge metrics
	SerializeRequests prometheus.Counter
	SerializeTimeouts prometheus.Counter
	SerializeDuration prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studio_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ComponentsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "studio_components_total",
			Help: "Number of stored component records",
		}),
		ComponentSaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_component_saves_total",
			Help: "Total component create/update operations",
		}),

		SurfaceRenders: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_surface_renders_total",
			Help: "Total surface render passes",
		}),
		SurfaceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_surface_errors_total",
			Help: "Total surface compile/execute failures",
		}),
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "studio_surface_render_duration_seconds",
			Help:    "Surface render duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		MutationsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_surface_mutations_applied_total",
			Help: "Total element mutations applied",
		}),
		MutationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_surface_mutations_dropped_total",
			Help: "Total element mutations dropped (missing target)",
		}),

		SerializeRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_bridge_serialize_requests_total",
			Help: "Total serialize requests issued over the bridge",
		}),
		SerializeTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studio_bridge_serialize_timeouts_total",
			Help: "Total serialize requests that timed out",
		}),
		SerializeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "studio_bridge_serialize_duration_seconds",
			Help:    "Serialize round-trip duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 3},
		}),

		WSConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "studio_ws_connections",
			Help: "Active editor WebSocket connections",
		}),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_ws_messages_total",
				Help: "Total editor WebSocket messages by type and direction",
			},
			[]string{"type", "direction"},
		),
	}
}

// Uptime returns time since metrics creation.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
