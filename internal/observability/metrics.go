package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voyage"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Request pipeline metrics.
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Distance resolution metrics.
	RouteRequests       *prometheus.CounterVec   // labels: method={routed,geodesic-fallback}, outcome={success,error}
	RouteCache          *prometheus.CounterVec   // labels: result={hit,miss}
	RouteEngineDuration prometheus.Histogram     // wall time of one engine process
	RouteWaypoints      prometheus.Histogram     // vertices per routed path
	RoutingEnabled      prometheus.Gauge         // 1 when the routed strategy is configured
	Estimates           *prometheus.CounterVec   // labels: outcome={success,invalid,vessel_unknown,distance_unavailable}
	EstimateDuration    *prometheus.HistogramVec // labels: method
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total voyage requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total voyage estimates written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total voyage requests that could not be estimated.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the request pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_requests_total",
			Help:      "Distance strategy attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		RouteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_cache_total",
			Help:      "Routed distance cache lookups by result.",
		}, []string{"result"}),
		RouteEngineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_engine_duration_seconds",
			Help:      "SeaRoute engine process duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		RouteWaypoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_waypoints",
			Help:      "Number of vertices in routed paths.",
			Buckets:   prometheus.ExponentialBuckets(2, 2, 10),
		}),
		RoutingEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routing_enabled",
			Help:      "1 when the SeaRoute engine is configured, 0 otherwise.",
		}),
		Estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_total",
			Help:      "Voyage estimates by outcome.",
		}, []string{"outcome"}),
		EstimateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "estimate_duration_seconds",
			Help:      "Duration of a voyage estimate by distance method.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"method"}),
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.RouteRequests,
		m.RouteCache,
		m.RouteEngineDuration,
		m.RouteWaypoints,
		m.RoutingEnabled,
		m.Estimates,
		m.EstimateDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
