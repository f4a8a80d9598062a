package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for workflow observability.
type Metrics struct {
	ExecutionsTotal prometheus.Counter     // Total workflow executions
	FallbacksTotal  *prometheus.CounterVec // Fallback decisions per stage
	AlertsCreated   prometheus.Counter     // Alerts persisted by the workflow
	Duration        prometheus.Histogram   // End-to-end execution duration
}

// NewMetrics creates and registers workflow metrics. The registerer
// parameter allows flexible registration (global registry, test registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	executions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigil_workflow_executions_total",
		Help: "Total number of workflow executions",
	})

	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_workflow_fallbacks_total",
		Help: "Total number of fallback agent decisions, by stage",
	}, []string{"stage"})

	alerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigil_workflow_alerts_created_total",
		Help: "Total number of alerts created by the workflow",
	})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vigil_workflow_duration_seconds",
		Help:    "Workflow execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	reg.MustRegister(executions)
	reg.MustRegister(fallbacks)
	reg.MustRegister(alerts)
	reg.MustRegister(duration)

	return &Metrics{
		ExecutionsTotal: executions,
		FallbacksTotal:  fallbacks,
		AlertsCreated:   alerts,
		Duration:        duration,
	}
}
