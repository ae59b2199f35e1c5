// Package metrics exposes Prometheus counters for reported errors and alerts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report outcomes.
const (
	ReportOK       = "ok"
	ReportDegraded = "degraded"
	AlertSent      = "sent"
	AlertFailed    = "failed"
	AlertThrottled = "throttled"
)

// Reporter counts reports and alerts. A nil *Reporter records nothing.
type Reporter struct {
	reports *prometheus.CounterVec
	alerts  *prometheus.CounterVec
}

// NewReporter registers the counters on reg.
func NewReporter(reg prometheus.Registerer) *Reporter {
	m := &Reporter{
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errwatch_reports_total",
				Help: "Total number of error reports emitted",
			},
			[]string{"outcome", "urgent"},
		),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errwatch_alerts_total",
				Help: "Total number of urgent alerts attempted",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.reports, m.alerts)
	return m
}

func (m *Reporter) RecordReport(outcome string, urgent bool) {
	if m == nil {
		return
	}
	u := "false"
	if urgent {
		u = "true"
	}
	m.reports.WithLabelValues(outcome, u).Inc()
}

func (m *Reporter) RecordAlert(outcome string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(outcome).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
