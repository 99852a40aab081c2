package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow. Methods are
// nil-safe so tests can run without a registry.
type Metrics struct {
	// External verifier call latencies by provider and outcome
	VerifierLatency *prometheus.HistogramVec

	// Workflow runs by final status
	WorkflowOutcome *prometheus.CounterVec

	// Stage outcomes by stage name and status
	StageOutcome *prometheus.CounterVec

	// Full run duration
	WorkflowDuration prometheus.Histogram

	// Reverification sweep results
	SweepMarked   prometheus.Counter
	SweepEnqueued prometheus.Counter
}

// New creates a Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		VerifierLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "driveli_verifier_call_duration_seconds",
			Help:    "Duration of external verifier calls by provider and outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "outcome"}),

		WorkflowOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "driveli_verification_workflows_total",
			Help: "Total verification workflow runs by final status",
		}, []string{"status"}),

		StageOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "driveli_verification_stages_total",
			Help: "Total stage outcomes by stage and status",
		}, []string{"stage", "status"}),

		WorkflowDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "driveli_verification_workflow_duration_seconds",
			Help:    "Duration of full workflow runs including verifier fan-out",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		SweepMarked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "driveli_reverification_marked_total",
			Help: "Total verifications marked for reverification by the scheduler",
		}),

		SweepEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "driveli_reverification_enqueued_total",
			Help: "Total workflow runs enqueued by the scheduler",
		}),
	}
}

// ObserveVerifierCall records one external verifier call.
func (m *Metrics) ObserveVerifierCall(provider, outcome string, d time.Duration) {
	if m != nil {
		m.VerifierLatency.WithLabelValues(provider, outcome).Observe(d.Seconds())
	}
}

// IncrementWorkflowOutcome records a finished workflow run.
func (m *Metrics) IncrementWorkflowOutcome(status string) {
	if m != nil {
		m.WorkflowOutcome.WithLabelValues(status).Inc()
	}
}

// IncrementStageOutcome records one stage outcome.
func (m *Metrics) IncrementStageOutcome(stage, status string) {
	if m != nil {
		m.StageOutcome.WithLabelValues(stage, status).Inc()
	}
}

// ObserveWorkflowDuration records the duration of a full run.
func (m *Metrics) ObserveWorkflowDuration(d time.Duration) {
	if m != nil {
		m.WorkflowDuration.Observe(d.Seconds())
	}
}

// AddSweepResults records one scheduler sweep.
func (m *Metrics) AddSweepResults(marked, enqueued int) {
	if m != nil {
		m.SweepMarked.Add(float64(marked))
		m.SweepEnqueued.Add(float64(enqueued))
	}
}
