package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Regenerated("due_date")
	m.Regenerated("due_date")
	m.EntriesGenerated(4)
	m.EntriesGenerated(0)
	m.BalancesUpdated(3)
	m.ConsistencyIssues(1)
	m.StatusChanged("overdue")
	m.SweepSkipped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.regenerations.WithLabelValues("due_date")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.entriesGenerated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.balancesUpdated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.consistencyIssues))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusChanges.WithLabelValues("overdue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweepSkipped))
}

func TestTracker_End(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	boom := errors.New("boom")

	assert.NoError(t, m.Track("sweep").End(nil))
	assert.ErrorIs(t, m.Track("sweep").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("sweep", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("sweep", "failure")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Regenerated("created")
		m.EntriesGenerated(1)
		m.BalancesUpdated(1)
		m.ConsistencyIssues(1)
		m.StatusChanged("overdue")
		m.SweepSkipped()
		_ = m.Track("op").End(nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.EntriesGenerated(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledger_entries_generated_total 2")
}
