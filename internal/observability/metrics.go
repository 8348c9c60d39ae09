package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lst_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the LST pipeline.
type Metrics struct {
	DatesProcessed  prometheus.Counter
	DatesFailed     *prometheus.CounterVec // labels: kind={empty_scene_set,degenerate_statistics,grid_mismatch,missing_band,pixel_budget,export_failure,transient}
	ScenesLoaded    prometheus.Counter
	PipelineRunning prometheus.Gauge

	DateDuration prometheus.Histogram
	ValidPixels  prometheus.Histogram

	// Export metrics.
	ExportAttempts prometheus.Counter
	ExportFailures prometheus.Counter
	ExportEvents   *prometheus.CounterVec // labels: outcome={success,error}

	// Scene cache metrics.
	SceneCache *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		DatesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dates_processed_total",
			Help:      "Dates whose LST raster was exported.",
		}),
		DatesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dates_failed_total",
			Help:      "Dates that failed, by error kind.",
		}, []string{"kind"}),
		ScenesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenes_loaded_total",
			Help:      "Scenes read from the archive.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a batch is running, 0 otherwise.",
		}),
		DateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "date_processing_duration_seconds",
			Help:      "Duration of composite, inversion and export for one date.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ValidPixels: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lst_valid_pixels",
			Help:      "Valid LST pixels per exported date.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}),
		ExportAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_attempts_total",
			Help:      "Export submissions including retries.",
		}),
		ExportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_failures_total",
			Help:      "Exports that failed after every retry.",
		}),
		ExportEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_events_total",
			Help:      "Export events published to Kafka by outcome.",
		}, []string{"outcome"}),
		SceneCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scene_cache_total",
			Help:      "Scene cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.DatesProcessed,
		m.DatesFailed,
		m.ScenesLoaded,
		m.PipelineRunning,
		m.DateDuration,
		m.ValidPixels,
		m.ExportAttempts,
		m.ExportFailures,
		m.ExportEvents,
		m.SceneCache,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
