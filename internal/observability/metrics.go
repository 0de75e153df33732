package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roster_geo"

// Metrics holds the Prometheus counters, histograms, and gauges for roster runs.
type Metrics struct {
	// Per-record outcomes. labels: mode={placement,residence}
	RecordsProcessed   *prometheus.CounterVec
	RecordsResolved    *prometheus.CounterVec
	RecordsUnresolved  *prometheus.CounterVec
	RecordsCategorized *prometheus.CounterVec

	RunDuration *prometheus.HistogramVec // labels: mode
	RunsActive  prometheus.Gauge

	ResolverCache *prometheus.CounterVec // labels: mode, result={hit,miss}
	LoaderErrors  *prometheus.CounterVec // labels: sink
	Published     *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates run metrics registered with reg. Batch commands pass
// a private registry since nothing scrapes them.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.RecordsProcessed,
		m.RecordsResolved,
		m.RecordsUnresolved,
		m.RecordsCategorized,
		m.RunDuration,
		m.RunsActive,
		m.ResolverCache,
		m.LoaderErrors,
		m.Published,
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
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "Roster records read from a source.",
		}, []string{"mode"}),
		RecordsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_resolved_total",
			Help:      "Records resolved to a canonical region.",
		}, []string{"mode"}),
		RecordsUnresolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_unresolved_total",
			Help:      "Records that did not resolve to any region.",
		}, []string{"mode"}),
		RecordsCategorized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_categorized_total",
			Help:      "Records that produced a category label.",
		}, []string{"mode"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete read-resolve-aggregate-load run.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"mode"}),
		RunsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Runs currently in progress.",
		}),
		ResolverCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_cache_total",
			Help:      "Resolver cache lookups by mode and result.",
		}, []string{"mode", "result"}),
		LoaderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loader_errors_total",
			Help:      "Summary loader failures by sink.",
		}, []string{"sink"}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_published_total",
			Help:      "Run summaries handed to a sink.",
		}, []string{"sink"}),
	}
}
