package harness

import (
	"github.com/testops/spec-harness/engine"
	"github.com/testops/spec-harness/metrics"
)

// MetricsReporter is responsible for reporting metrics from run results.
type MetricsReporter interface {
	ReportResults(runID string, result *RunResult)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults reports the run results to metrics systems.
func (r *DefaultMetricsReporter) ReportResults(runID string, result *RunResult) {
	metrics.RecordRun(
		runID,
		result.Outcome,
		result.Stats,
		result.Duration,
	)
}

// specMetricsListener records per-spec metrics while events stream in, so
// counters move during the run instead of all at once at the end.
type specMetricsListener struct {
	engine.BaseListener
	runID string
}

func newSpecMetricsListener(runID string) *specMetricsListener {
	return &specMetricsListener{runID: runID}
}

func (l *specMetricsListener) TestCompleted(ev engine.TestEvent) {
	metrics.RecordSpec(l.runID, ev.File, ev.FullName, statusFromState(ev.State))
}

var _ engine.Listener = (*specMetricsListener)(nil)
