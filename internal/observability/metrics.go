package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Read failure reasons used as the reason label on ReadFailures.
const (
	ReasonMissingFile = "missing_file"
	ReasonParse       = "parse"
)

// Metrics holds the Prometheus counters and histograms shared by the
// aggregation and map paths.
type Metrics struct {
	DatasetsRead prometheus.Counter
	RowsRead     prometheus.Counter
	ReadFailures *prometheus.CounterVec // labels: reason={missing_file,parse}

	// Aggregation metrics.
	YearsSkipped      prometheus.Counter
	SummariesBuilt    prometheus.Counter
	SummarizeDuration prometheus.Histogram

	// Map rendering metrics.
	MapsRendered   prometheus.Counter
	MapPoints      prometheus.Histogram
	RenderDuration prometheus.Histogram
}

// NewMetrics creates and registers all analysis metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "datasets_read_total",
			Help:      "Total vintage files read successfully.",
		}),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "rows_read_total",
			Help:      "Total accident records read across all vintage files.",
		}),
		ReadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "read_failures_total",
			Help:      "Vintage reads that failed, by reason.",
		}, []string{"reason"}),
		YearsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "years_skipped_total",
			Help:      "Requested years dropped from aggregation after a read failure.",
		}),
		SummariesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "summaries_built_total",
			Help:      "Total cross-year summary tables built.",
		}),
		SummarizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fars",
			Name:      "summarize_duration_seconds",
			Help:      "Duration of a complete summarize run, reads included.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		MapsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fars",
			Name:      "maps_rendered_total",
			Help:      "Total state maps rendered successfully.",
		}),
		MapPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fars",
			Name:      "map_points_plotted",
			Help:      "Plottable points per rendered state map.",
			Buckets:   []float64{10, 100, 500, 1000, 5000, 10000, 50000},
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fars",
			Name:      "render_duration_seconds",
			Help:      "Duration of a state map render, read included.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.DatasetsRead,
		m.RowsRead,
		m.ReadFailures,
		m.YearsSkipped,
		m.SummariesBuilt,
		m.SummarizeDuration,
		m.MapsRendered,
		m.MapPoints,
		m.RenderDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetsRead:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fars", Name: "datasets_read_total"}),
		RowsRead:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fars", Name: "rows_read_total"}),
		ReadFailures:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "fars", Name: "read_failures_total"}, []string{"reason"}),
		YearsSkipped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fars", Name: "years_skipped_total"}),
		SummariesBuilt:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fars", Name: "summaries_built_total"}),
		SummarizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "fars", Name: "summarize_duration_seconds"}),
		MapsRendered:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "fars", Name: "maps_rendered_total"}),
		MapPoints:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "fars", Name: "map_points_plotted"}),
		RenderDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "fars", Name: "render_duration_seconds"}),
	}
}
