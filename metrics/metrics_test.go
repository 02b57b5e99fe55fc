package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/testops/spec-harness/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("test__error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordError(t *testing.T) {
	// just test that it doesn't panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("RecordError panic'd")
		}
	}()

	RecordError("test_error")
}

func TestRecordErrorDetails(t *testing.T) {
	// Test with nil error
	RecordErrorDetails("test", nil)

	// Test with actual error
	RecordErrorDetails("test", errors.New("sample error"))
}

func TestRecordSpec(t *testing.T) {
	RecordSpec("run1", "calc.spec.js", "calculator adds numbers", types.StatusPassed)
	RecordSpec("run1", "calc.spec.js", "calculator divides by zero", types.StatusPending)
	RecordSpec("run1", "parser.spec.js", "parser rejects garbage", types.StatusFailed)

	// Unknown statuses are dropped rather than recorded
	RecordSpec("run1", "calc.spec.js", "weird", types.Status("exploded"))
}

func TestRecordRun(t *testing.T) {
	RecordRun("run1", types.RunPassed, types.ResultStats{Total: 2, Passed: 2}, time.Second)
	RecordRun("run2", types.RunFailed, types.ResultStats{Total: 3, Passed: 1, Pending: 1, Failed: 1}, 500*time.Millisecond)
}
