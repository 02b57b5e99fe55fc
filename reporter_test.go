package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/testops/spec-harness/engine"
	"github.com/testops/spec-harness/types"
)

// TestDefaultMetricsReporter_ReportResults tests the metrics reporter
func TestDefaultMetricsReporter_ReportResults(t *testing.T) {
	// Create a sample result
	result := &RunResult{
		RunID:    "test-run-1",
		Outcome:  types.RunPassed,
		Duration: 100 * time.Millisecond,
		Stats: types.ResultStats{
			Total:   5,
			Passed:  5,
			Pending: 0,
			Failed:  0,
		},
	}

	// Create reporter
	recorder := &DefaultMetricsReporter{}

	// Report results - this is mostly checking it doesn't error
	// In a real test, we would mock the metrics package and verify the calls
	recorder.ReportResults(result.RunID, result)

	// No assertions needed as we're just checking it doesn't panic
	assert.True(t, true, "Test completed without panicking")
}

// TestDefaultMetricsReporter_ReportResults_FailedSpecs tests reporting failed specs
func TestDefaultMetricsReporter_ReportResults_FailedSpecs(t *testing.T) {
	// Create a sample result with failures
	result := &RunResult{
		RunID:    "test-run-2",
		Outcome:  types.RunFailed,
		Duration: 150 * time.Millisecond,
		Stats: types.ResultStats{
			Total:   10,
			Passed:  7,
			Pending: 0,
			Failed:  3,
		},
	}

	// Create reporter
	recorder := &DefaultMetricsReporter{}

	// Report results - this is mostly checking it doesn't error
	recorder.ReportResults(result.RunID, result)

	// No assertions needed as we're just checking it doesn't panic
	assert.True(t, true, "Test completed without panicking")
}

// TestDefaultMetricsReporter_ReportResults_PendingSpecs tests reporting pending specs
func TestDefaultMetricsReporter_ReportResults_PendingSpecs(t *testing.T) {
	// Create a sample result with pending specs. Pending specs don't fail the run.
	result := &RunResult{
		RunID:    "test-run-3",
		Outcome:  types.RunPassed,
		Duration: 75 * time.Millisecond,
		Stats: types.ResultStats{
			Total:   8,
			Passed:  5,
			Pending: 3,
			Failed:  0,
		},
	}

	// Create reporter
	recorder := &DefaultMetricsReporter{}

	// Report results - this is mostly checking it doesn't error
	recorder.ReportResults(result.RunID, result)

	// No assertions needed as we're just checking it doesn't panic
	assert.True(t, true, "Test completed without panicking")
}

// TestSpecMetricsListener_TestCompleted streams one event per terminal state
// through the listener
func TestSpecMetricsListener_TestCompleted(t *testing.T) {
	listener := newSpecMetricsListener("test-run-4")

	events := []engine.TestEvent{
		{FullName: "calc adds numbers", State: engine.StatePassed, File: "calc.spec.js", Duration: 12 * time.Millisecond},
		{FullName: "calc carries the one", State: engine.StatePending, File: "calc.spec.js"},
		{
			FullName: "calc divides by zero",
			State:    engine.StateFailed,
			File:     "calc.spec.js",
			Err:      &engine.ErrorDetail{Message: "Expected Infinity to be 0.", Stack: "at calc.spec.js:12"},
			Duration: 3 * time.Millisecond,
		},
	}

	// Record each event - this is mostly checking it doesn't error
	for _, ev := range events {
		listener.TestCompleted(ev)
	}

	// No assertions needed as we're just checking it doesn't panic
	assert.True(t, true, "Test completed without panicking")
}
