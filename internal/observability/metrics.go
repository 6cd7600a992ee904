package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus collectors for ledger operations. All methods are safe on a
// nil receiver.
type Metrics struct {
	runs              *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	regenerations     *prometheus.CounterVec
	entriesGenerated  prometheus.Counter
	balancesUpdated   prometheus.Counter
	consistencyIssues prometheus.Counter
	statusChanges     *prometheus.CounterVec
	sweepSkipped      prometheus.Counter
	gatherer          prometheus.Gatherer
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the ledger metrics against the provided registry. When the registry
// is nil the default Prometheus registry is used.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
		})
		return defaultMetrics
	}
	return buildMetrics(registry, registry)
}

func buildMetrics(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by name and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Ledger operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		regenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_regenerations_total",
			Help: "Loan ledger regenerations by kind of triggering change.",
		}, []string{"kind"}),
		entriesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_entries_generated_total",
			Help: "Generated ledger entries inserted.",
		}),
		balancesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_balances_updated_total",
			Help: "Running balances rewritten by reconciliation.",
		}),
		consistencyIssues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_consistency_issues_total",
			Help: "Data inconsistencies detected and logged.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_loan_status_changes_total",
			Help: "Loan status transitions by target status.",
		}, []string{"status"}),
		sweepSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_sweep_skipped_total",
			Help: "Overdue sweeps skipped because another sweep held the lock.",
		}),
		gatherer: gatherer,
	}
	registerer.MustRegister(
		m.runs,
		m.duration,
		m.regenerations,
		m.entriesGenerated,
		m.balancesUpdated,
		m.consistencyIssues,
		m.statusChanges,
		m.sweepSkipped,
	)
	return m
}

// Tracker records the outcome of one operation.
type Tracker struct {
	metrics   *Metrics
	operation string
	start     time.Time
}

// Track starts timing an operation.
func (m *Metrics) Track(operation string) *Tracker {
	return &Tracker{metrics: m, operation: operation, start: time.Now()}
}

// End records duration and outcome and returns err untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.metrics.runs.WithLabelValues(t.operation, status).Inc()
	t.metrics.duration.WithLabelValues(t.operation).Observe(time.Since(t.start).Seconds())
	return err
}

// Regenerated counts a regeneration under its change kind. Kinds come from a fixed set so
// the label stays bounded; the free-text reason belongs in logs.
func (m *Metrics) Regenerated(kind string) {
	if m == nil {
		return
	}
	m.regenerations.WithLabelValues(kind).Inc()
}

func (m *Metrics) EntriesGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entriesGenerated.Add(float64(n))
}

func (m *Metrics) BalancesUpdated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.balancesUpdated.Add(float64(n))
}

func (m *Metrics) ConsistencyIssues(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.consistencyIssues.Add(float64(n))
}

func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) SweepSkipped() {
	if m == nil {
		return
	}
	m.sweepSkipped.Inc()
}

// Handler serves the registry the metrics were built against.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
