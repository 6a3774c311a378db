package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
)

const namespace = "cleanerbot"

// Stage labels for removed rows.
const (
	StageNonZone      = "non_zone"
	StageSearchEngine = "search_engine"
	StageDuplicate    = "duplicate"
	StageEmpty        = "empty"
)

// Metrics exposes cleaning counters on a dedicated registry.
type Metrics struct {
	registry    *prometheus.Registry
	files       *prometheus.CounterVec
	rowsIn      prometheus.Counter
	rowsOut     prometheus.Counter
	rowsRemoved *prometheus.CounterVec
	duration    prometheus.Histogram
}

var _ ports.Recorder = (*Metrics)(nil)

// New registers all collectors plus Go/process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Files processed, by outcome.",
		}, []string{"status"}),
		rowsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Rows read from successfully cleaned files.",
		}),
		rowsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_kept_total",
			Help:      "Rows written to cleaned files.",
		}),
		rowsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_removed_total",
			Help:      "Rows removed, by cleaning stage.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clean_duration_seconds",
			Help:      "Time to read, clean and write one file.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.files,
		m.rowsIn,
		m.rowsOut,
		m.rowsRemoved,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveRun records one processed file. Row counters move only for
// successful runs.
func (m *Metrics) ObserveRun(status domain.RunStatus, stats domain.Stats, elapsed time.Duration) {
	m.files.WithLabelValues(string(status)).Inc()
	m.duration.Observe(elapsed.Seconds())

	if status != domain.RunSucceeded {
		return
	}

	m.rowsIn.Add(float64(stats.Original))
	m.rowsOut.Add(float64(stats.Final))
	m.rowsRemoved.WithLabelValues(StageNonZone).Add(float64(stats.RemovedNonZone))
	m.rowsRemoved.WithLabelValues(StageSearchEngine).Add(float64(stats.RemovedSearchEngine))
	m.rowsRemoved.WithLabelValues(StageDuplicate).Add(float64(stats.RemovedDuplicate))
	m.rowsRemoved.WithLabelValues(StageEmpty).Add(float64(stats.RemovedEmpty))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
