package engine

import "time"

// Runner execution constants
const (
	// DefaultFileTimeout is the default timeout for one spec file
	DefaultFileTimeout = 10 * time.Minute

	// DefaultRunnerBinary is the runner executable resolved on PATH
	DefaultRunnerBinary = "spec-runner"

	// Runner protocol event names
	EventTestDone  = "testDone"
	EventSuiteDone = "suiteDone"

	// scanBufferBytes bounds a single protocol line; stack traces can be long
	scanBufferBytes = 1024 * 1024

	// MaxReasonableConcurrency caps auto-determined concurrency to avoid resource exhaustion
	MaxReasonableConcurrency = 32
)
