package engine

import (
	"context"
	"time"
)

// TerminalState is the state string the runner reports for one executed
// spec. Anything that is neither passed nor pending is treated as failed
// downstream.
type TerminalState string

const (
	StatePassed  TerminalState = "passed"
	StatePending TerminalState = "pending"
	StateFailed  TerminalState = "failed"
)

// ErrorDetail is the error object a runner may attach to a test event
type ErrorDetail struct {
	Message string
	Stack   string
}

// TestEvent is delivered exactly once per executed spec
type TestEvent struct {
	FullName string
	State    TerminalState
	Err      *ErrorDetail
	Duration time.Duration
	File     string // spec file that produced the event
}

// SuiteEvent is delivered once per completed suite. Root marks the single
// run-level suite; per-file suites are never root.
type SuiteEvent struct {
	Root        bool
	Description string
	File        string
}

// Listener receives the engine's event stream. Delivery is serial: one
// event at a time, in completion order, with the root SuiteEvent strictly
// after every TestEvent of the run. Implementations need no locking.
type Listener interface {
	TestCompleted(ev TestEvent)
	SuiteCompleted(ev SuiteEvent)
}

// BaseListener is a no-op Listener intended for embedding, so partial
// listeners only implement the events they care about.
type BaseListener struct{}

func (BaseListener) TestCompleted(TestEvent)   {}
func (BaseListener) SuiteCompleted(SuiteEvent) {}

// MultiListener fans each event out to its children in registration order
type MultiListener struct {
	listeners []Listener
}

func NewMultiListener(listeners ...Listener) *MultiListener {
	return &MultiListener{listeners: listeners}
}

// Add registers another child listener
func (m *MultiListener) Add(l Listener) {
	m.listeners = append(m.listeners, l)
}

func (m *MultiListener) TestCompleted(ev TestEvent) {
	for _, l := range m.listeners {
		l.TestCompleted(ev)
	}
}

func (m *MultiListener) SuiteCompleted(ev SuiteEvent) {
	for _, l := range m.listeners {
		l.SuiteCompleted(ev)
	}
}

var _ Listener = (*MultiListener)(nil)

// Engine executes a run of spec files and streams events to the listener.
// Run returns once the root SuiteEvent has been delivered, or with an error
// when the run was aborted before completing.
type Engine interface {
	Run(ctx context.Context, l Listener) error
}

// ProgressIndicator is notified as spec files start and finish, for
// console progress during long runs. Implementations must be safe for
// concurrent use.
type ProgressIndicator interface {
	StartFile(file string)
	CompleteFile(file string, failedSpecs int)
	Stop()
}
