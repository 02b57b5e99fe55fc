// Package engine drives external spec-runner processes and turns their
// stdout into a typed event stream.
//
// The main components are:
//   - Listener: The typed event subscription surface (TestCompleted, SuiteCompleted)
//   - SubprocessEngine: Launches one runner process per spec file on a bounded
//     worker pool and serializes event delivery
//   - specExecutor: Handles a single runner process and parses its
//     newline-delimited JSON protocol
//
// Spec files may execute concurrently, but listeners always observe a serial
// stream: events arrive one at a time, and the run-level root suite event is
// delivered only after every test event of the run.
package engine
