package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReporter(reg)

	m.RecordReport(ReportOK, false)
	m.RecordReport(ReportOK, false)
	m.RecordReport(ReportDegraded, true)
	m.RecordAlert(AlertFailed)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.reports.WithLabelValues(ReportOK, "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reports.WithLabelValues(ReportDegraded, "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.alerts.WithLabelValues(AlertFailed)))
}

func TestReporter_NilIsNoop(t *testing.T) {
	var m *Reporter
	m.RecordReport(ReportOK, false)
	m.RecordAlert(AlertSent)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewReporter(reg).RecordAlert(AlertSent)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `errwatch_alerts_total{outcome="sent"} 1`)
}
