package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ScansTotal           prometheus.Counter
	RemediationRuns      *prometheus.CounterVec
	RemediationOutcomes  *prometheus.CounterVec
	RollbacksTotal       prometheus.Counter
	SessionsPurgedTotal  prometheus.Counter
	EngineBusyRejections prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dapomaster_validation_scans_total",
			Help: "Total number of validation scans executed",
		}),
		RemediationRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dapomaster_remediation_runs_total",
			Help: "Total number of remediation runs by terminal status",
		}, []string{"status"}),
		RemediationOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dapomaster_remediation_outcomes_total",
			Help: "Total per-record remediation outcomes by result",
		}, []string{"result"}),
		RollbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dapomaster_rollbacks_total",
			Help: "Total number of completed session rollbacks",
		}),
		SessionsPurgedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dapomaster_sessions_purged_total",
			Help: "Total number of sessions removed by retention cleanup",
		}),
		EngineBusyRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dapomaster_engine_busy_rejections_total",
			Help: "Total number of calls rejected by the single-flight engine lock",
		}),
	}
}

// ObserveRun records a terminal remediation run status.
func (m *Metrics) ObserveRun(status string) {
	if m == nil {
		return
	}
	m.RemediationRuns.WithLabelValues(status).Inc()
}

// ObserveOutcome records one per-record outcome result ("success" or "error").
func (m *Metrics) ObserveOutcome(result string) {
	if m == nil {
		return
	}
	m.RemediationOutcomes.WithLabelValues(result).Inc()
}
