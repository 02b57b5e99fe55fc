// Package exitcodes defines the standard exit codes used by spec-harness.
package exitcodes

// Exit code constants used by spec-harness
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every spec in the run passes
// * RunFailure (1): Used when one or more specs fail
// * RuntimeErr (2): Used for runtime errors such as panics, timeouts or other failures
const (
	Success    = 0 // All specs pass
	RunFailure = 1 // Spec failures
	RuntimeErr = 2 // Runtime errors or timeouts
)
