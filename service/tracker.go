package service

import (
	"sync"
	"time"

	"github.com/testops/spec-harness/types"
)

// RunState describes where the harness is in its run cycle.
type RunState string

const (
	RunStateIdle      RunState = "idle"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
)

// StatusSnapshot is the JSON document served at /status.
type StatusSnapshot struct {
	State      RunState           `json:"state"`
	RunID      string             `json:"runId,omitempty"`
	Outcome    string             `json:"outcome,omitempty"`
	Stats      *types.ResultStats `json:"stats,omitempty"`
	StartedAt  *time.Time         `json:"startedAt,omitempty"`
	FinishedAt *time.Time         `json:"finishedAt,omitempty"`
}

// RunTracker records the state of the current and most recent run for the
// status endpoints. It is safe for concurrent use.
type RunTracker struct {
	mu         sync.RWMutex
	state      RunState
	runID      string
	results    []*types.TestResult
	outcome    types.RunOutcome
	hasOutcome bool
	startedAt  time.Time
	finishedAt time.Time
}

func NewRunTracker() *RunTracker {
	return &RunTracker{
		state: RunStateIdle,
	}
}

// BeginRun marks a run as in progress. Results of the previous run stay
// visible until the new run completes.
func (t *RunTracker) BeginRun(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = RunStateRunning
	t.runID = runID
	t.startedAt = time.Now()
	t.finishedAt = time.Time{}
}

// CompleteRun publishes the outcome of a finished run.
func (t *RunTracker) CompleteRun(runID string, results []*types.TestResult, outcome types.RunOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = RunStateCompleted
	t.runID = runID
	t.results = results
	t.outcome = outcome
	t.hasOutcome = true
	t.finishedAt = time.Now()
}

// Snapshot returns the current status document.
func (t *RunTracker) Snapshot() StatusSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := StatusSnapshot{
		State: t.state,
		RunID: t.runID,
	}
	if !t.startedAt.IsZero() {
		started := t.startedAt
		snap.StartedAt = &started
	}
	if !t.finishedAt.IsZero() {
		finished := t.finishedAt
		snap.FinishedAt = &finished
	}
	if t.hasOutcome {
		snap.Outcome = t.outcome.String()

		set := &types.ResultSet{}
		for _, r := range t.results {
			set.Append(r)
		}
		stats := set.Stats()
		snap.Stats = &stats
	}
	return snap
}

// Results returns the records of the most recently completed run in
// completion order.
func (t *RunTracker) Results() []*types.TestResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.results
}
