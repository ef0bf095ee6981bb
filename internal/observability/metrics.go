package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "radar_regrid"

// Metrics holds the Prometheus counters, histograms, and gauges for the regrid service.
type Metrics struct {
	VolumesConsumed prometheus.Counter
	GridsProduced   prometheus.Counter
	TransformErrors *prometheus.CounterVec // labels: stage={parse,regrid}
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Regrid pass metrics.
	RegridDuration prometheus.Histogram
	GridCells      *prometheus.CounterVec // labels: result={data,missing}
	RaysSkipped    prometheus.Counter
	ComputeThreads prometheus.Gauge

	// Preview sink metrics.
	PreviewsWritten prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.VolumesConsumed,
		m.GridsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.RegridDuration,
		m.GridCells,
		m.RaysSkipped,
		m.ComputeThreads,
		m.PreviewsWritten,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		VolumesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volumes_consumed_total",
			Help:      "Total radar volumes read from the source topic.",
		}),
		GridsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grids_produced_total",
			Help:      "Total polar grids written to the sinks.",
		}),
		TransformErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Volumes skipped because they could not be parsed or regridded.",
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of volumes per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-regrid-load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RegridDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "regrid_duration_seconds",
			Help:      "Duration of a single volume regrid pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		GridCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_cells_total",
			Help:      "Output (elevation, azimuth) cells by whether any ray contributed.",
		}, []string{"result"}),
		RaysSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rays_skipped_total",
			Help:      "Rays that fell outside the azimuth search table.",
		}),
		ComputeThreads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "compute_threads",
			Help:      "Worker goroutines used per regrid pass.",
		}),
		PreviewsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_written_total",
			Help:      "PNG previews written by the preview sink.",
		}),
	}
}
