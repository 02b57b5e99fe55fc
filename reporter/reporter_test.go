package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testops/spec-harness/engine"
	"github.com/testops/spec-harness/types"
)

// scriptedEngine replays a fixed event sequence through the Listener,
// standing in for a real runner-backed engine.
type scriptedEngine struct {
	events []any
}

func (s *scriptedEngine) Run(_ context.Context, l engine.Listener) error {
	for _, ev := range s.events {
		switch e := ev.(type) {
		case engine.TestEvent:
			l.TestCompleted(e)
		case engine.SuiteEvent:
			l.SuiteCompleted(e)
		}
	}
	return nil
}

var _ engine.Engine = (*scriptedEngine)(nil)

func passedEvent(name string) engine.TestEvent {
	return engine.TestEvent{FullName: name, State: engine.StatePassed}
}

func failedEvent(name, message, stack string) engine.TestEvent {
	return engine.TestEvent{
		FullName: name,
		State:    engine.StateFailed,
		Err:      &engine.ErrorDetail{Message: message, Stack: stack},
	}
}

func rootSuiteDone() engine.SuiteEvent {
	return engine.SuiteEvent{Root: true}
}

func TestReporter_AllPassingRun(t *testing.T) {
	rep := New(log.New())

	var published []types.RunOutcome
	rep.OnOutcome(func(o types.RunOutcome) { published = append(published, o) })

	eng := &scriptedEngine{events: []any{
		passedEvent("calc adds numbers"),
		passedEvent("calc subtracts numbers"),
		rootSuiteDone(),
	}}
	require.NoError(t, eng.Run(context.Background(), rep))

	require.Len(t, published, 1, "verdict published exactly once")
	assert.Equal(t, types.RunPassed, published[0])

	outcome, ok := rep.Outcome()
	require.True(t, ok)
	assert.True(t, outcome.Passed())
	assert.Equal(t, 2, rep.Results().Len())
	assert.Empty(t, rep.Results().Failed())
}

func TestReporter_FailingRunLogsDiagnosticsFirst(t *testing.T) {
	capture := newCaptureLogger()
	rep := New(capture)

	var observedResults int
	var diagnosticsAtPublish bool
	rep.OnOutcome(func(o types.RunOutcome) {
		assert.Equal(t, types.RunFailed, o)
		observedResults = rep.Results().Len()
		diagnosticsAtPublish = capture.contains("expected 1 to equal 2")
	})

	eng := &scriptedEngine{events: []any{
		passedEvent("calc adds numbers"),
		failedEvent("calc divides by zero", "expected 1 to equal 2", "at calc.spec.js:14"),
		rootSuiteDone(),
	}}
	require.NoError(t, eng.Run(context.Background(), rep))

	// Diagnostics carry the spec title, message and stack
	assert.True(t, capture.contains("calc divides by zero"))
	assert.True(t, capture.contains("expected 1 to equal 2"))
	assert.True(t, capture.contains("at calc.spec.js:14"))

	assert.True(t, diagnosticsAtPublish, "diagnostics must be logged before the verdict is published")
	assert.Equal(t, 2, observedResults, "consumers observe the complete ResultSet")

	failed := rep.Results().Failed()
	require.Len(t, failed, 1)
	require.Len(t, failed[0].FailedExpectations, 1)
	assert.Equal(t, "expected 1 to equal 2", failed[0].FailedExpectations[0].Message)
	assert.Equal(t, "at calc.spec.js:14", failed[0].FailedExpectations[0].Stack)
}

func TestReporter_NonRootSuiteCompletionsAreIgnored(t *testing.T) {
	rep := New(log.New())

	calls := 0
	rep.OnOutcome(func(types.RunOutcome) { calls++ })

	eng := &scriptedEngine{events: []any{
		passedEvent("calc adds numbers"),
		engine.SuiteEvent{Root: false, Description: "calc"},
		engine.SuiteEvent{Root: false, Description: "parser"},
	}}
	require.NoError(t, eng.Run(context.Background(), rep))

	assert.Zero(t, calls, "non-root completions must not publish")
	_, ok := rep.Outcome()
	assert.False(t, ok)
}

func TestReporter_Classification(t *testing.T) {
	tests := []struct {
		name             string
		event            engine.TestEvent
		wantStatus       types.Status
		wantExpectations int
	}{
		{
			name:       "passed",
			event:      engine.TestEvent{FullName: "s", State: engine.StatePassed},
			wantStatus: types.StatusPassed,
		},
		{
			name:       "pending",
			event:      engine.TestEvent{FullName: "s", State: engine.StatePending},
			wantStatus: types.StatusPending,
		},
		{
			name:             "failed with error detail",
			event:            failedEvent("s", "boom", "at s.spec.js:1"),
			wantStatus:       types.StatusFailed,
			wantExpectations: 1,
		},
		{
			name:             "failed without error detail",
			event:            engine.TestEvent{FullName: "s", State: engine.StateFailed},
			wantStatus:       types.StatusFailed,
			wantExpectations: 1,
		},
		{
			name:             "unknown state treated as failed",
			event:            engine.TestEvent{FullName: "s", State: "exploded"},
			wantStatus:       types.StatusFailed,
			wantExpectations: 1,
		},
		{
			name: "pending with error detail keeps no expectations",
			event: engine.TestEvent{
				FullName: "s",
				State:    engine.StatePending,
				Err:      &engine.ErrorDetail{Message: "timed out waiting", Stack: "at s.spec.js:9"},
			},
			wantStatus: types.StatusPending,
		},
		{
			name: "passed with error detail keeps no expectations",
			event: engine.TestEvent{
				FullName: "s",
				State:    engine.StatePassed,
				Err:      &engine.ErrorDetail{Message: "flaky teardown"},
			},
			wantStatus: types.StatusPassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := New(log.New())
			rep.TestCompleted(tt.event)

			require.Equal(t, 1, rep.Results().Len(), "exactly one record per event")
			record := rep.Results().All()[0]
			assert.Equal(t, tt.wantStatus, record.Status)
			assert.Len(t, record.FailedExpectations, tt.wantExpectations)
		})
	}
}

func TestReporter_DiagnosticsIndependentOfState(t *testing.T) {
	capture := newCaptureLogger()
	rep := New(capture)

	rep.TestCompleted(engine.TestEvent{
		FullName: "calc resolves eventually",
		State:    engine.StatePending,
		Err:      &engine.ErrorDetail{Message: "deferred failure", Stack: "at calc.spec.js:3"},
	})

	assert.True(t, capture.contains("deferred failure"),
		"error detail must be logged even when the state keeps no expectations")
	record := rep.Results().All()[0]
	assert.Equal(t, types.StatusPending, record.Status)
	assert.Empty(t, record.FailedExpectations)
}

func TestReporter_SynthesizedExpectationForBareFailure(t *testing.T) {
	rep := New(log.New())
	rep.TestCompleted(engine.TestEvent{FullName: "s", State: engine.StateFailed})

	record := rep.Results().All()[0]
	require.Len(t, record.FailedExpectations, 1)
	assert.Contains(t, record.FailedExpectations[0].Message, "no error detail")
}

func TestReporter_DuplicateRootPublishesOnce(t *testing.T) {
	rep := New(log.New())

	calls := 0
	rep.OnOutcome(func(types.RunOutcome) { calls++ })

	rep.TestCompleted(passedEvent("calc adds numbers"))
	rep.SuiteCompleted(rootSuiteDone())
	rep.SuiteCompleted(rootSuiteDone())

	assert.Equal(t, 1, calls)
}

func TestReporter_ConsumersRunInRegistrationOrder(t *testing.T) {
	rep := New(log.New())

	var order []string
	rep.OnOutcome(func(types.RunOutcome) { order = append(order, "marker") })
	rep.OnOutcome(func(types.RunOutcome) { order = append(order, "metrics") })
	rep.OnOutcome(func(types.RunOutcome) { order = append(order, "status") })

	rep.SuiteCompleted(rootSuiteDone())

	assert.Equal(t, []string{"marker", "metrics", "status"}, order)
}

func TestReporter_InsertionOrderIsCompletionOrder(t *testing.T) {
	rep := New(log.New())

	names := []string{"third file spec", "first file spec", "second file spec"}
	for _, name := range names {
		rep.TestCompleted(passedEvent(name))
	}

	all := rep.Results().All()
	require.Len(t, all, len(names))
	for i, r := range all {
		assert.Equal(t, names[i], r.FullName)
	}
}

func TestReporter_EmptyRunPasses(t *testing.T) {
	rep := New(log.New())

	var published []types.RunOutcome
	rep.OnOutcome(func(o types.RunOutcome) { published = append(published, o) })

	rep.SuiteCompleted(rootSuiteDone())

	require.Len(t, published, 1)
	assert.Equal(t, types.RunPassed, published[0])
}

// captureLogger implements the go-ethereum log.Logger interface and records
// formatted lines for assertions.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{}
}

func (l *captureLogger) record(msg string, ctx ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	parts := []string{msg}
	for i := 0; i+1 < len(ctx); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%v", ctx[i], ctx[i+1]))
	}
	l.lines = append(l.lines, strings.Join(parts, " "))
}

func (l *captureLogger) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, line := range l.lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

func (l *captureLogger) Crit(msg string, ctx ...interface{})  { l.record(msg, ctx...) }
func (l *captureLogger) Error(msg string, ctx ...interface{}) { l.record(msg, ctx...) }
func (l *captureLogger) Warn(msg string, ctx ...interface{})  { l.record(msg, ctx...) }
func (l *captureLogger) Info(msg string, ctx ...interface{})  { l.record(msg, ctx...) }
func (l *captureLogger) Debug(msg string, ctx ...interface{}) { l.record(msg, ctx...) }
func (l *captureLogger) Trace(msg string, ctx ...interface{}) { l.record(msg, ctx...) }

func (l *captureLogger) CritContext(_ context.Context, msg string, ctx ...interface{}) {
	l.record(msg, ctx...)
}
func (l *captureLogger) ErrorContext(_ context.Context, msg string, ctx ...interface{}) {
	l.record(msg, ctx...)
}
func (l *captureLogger) WarnContext(_ context.Context, msg string, ctx ...interface{}) {
	l.record(msg, ctx...)
}
func (l *captureLogger) InfoContext(_ context.Context, msg string, ctx ...interface{}) {
	l.record(msg, ctx...)
}
func (l *captureLogger) DebugContext(_ context.Context, msg string, ctx ...interface{}) {
	l.record(msg, ctx...)
}
func (l *captureLogger) TraceContext(_ context.Context, msg string, ctx ...interface{}) {
	l.record(msg, ctx...)
}

func (l *captureLogger) New(ctx ...interface{}) log.Logger { return l }
func (l *captureLogger) With(ctx ...interface{}) log.Logger {
	return l
}
func (l *captureLogger) Enabled(context.Context, slog.Level) bool { return true }
func (l *captureLogger) Handler() slog.Handler                    { return nil }

func (l *captureLogger) Log(_ slog.Level, msg string, ctx ...interface{}) { l.record(msg, ctx...) }
func (l *captureLogger) LogAttrs(_ context.Context, _ slog.Level, msg string, attrs ...slog.Attr) {
	ctx := make([]interface{}, 0, len(attrs)*2)
	for _, attr := range attrs {
		ctx = append(ctx, attr.Key, attr.Value.String())
	}
	l.record(msg, ctx...)
}
func (l *captureLogger) Write(_ slog.Level, msg string, attrs ...any) { l.record(msg, attrs...) }
func (l *captureLogger) WriteCtx(_ context.Context, _ slog.Level, msg string, attrs ...any) {
	l.record(msg, attrs...)
}
func (l *captureLogger) SetContext(context.Context) {}

var _ log.Logger = (*captureLogger)(nil)
