// Package reporter owns the classification of engine events into the run's
// ResultSet and the publication of the run verdict.
package reporter

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/spec-harness/engine"
	"github.com/testops/spec-harness/types"
)

// OutcomeFunc consumes the run verdict once the root suite completes
type OutcomeFunc func(types.RunOutcome)

// Reporter listens to the engine's event stream for one run. It appends one
// TestResult per test event, in completion order, and derives the RunOutcome
// from the full ResultSet when the root suite completes.
//
// The engine delivers events serially, so the Reporter holds no locks. One
// Reporter serves exactly one run; build a fresh one per run.
type Reporter struct {
	log       log.Logger
	results   *types.ResultSet
	consumers []OutcomeFunc
	outcome   types.RunOutcome
	published bool
}

// New creates a Reporter for a single run
func New(logger log.Logger) *Reporter {
	if logger == nil {
		logger = log.New()
		logger.Error("No logger provided, using default")
	}
	return &Reporter{
		log:     logger,
		results: &types.ResultSet{},
	}
}

// OnOutcome registers a consumer for the run verdict. Consumers are invoked
// in registration order, exactly once per run.
func (r *Reporter) OnOutcome(fn OutcomeFunc) {
	r.consumers = append(r.consumers, fn)
}

// TestCompleted records one executed spec. When the event carries an error
// object its diagnostics are logged immediately, before and independent of
// classification, so failure detail is never lost even for states that keep
// no expectations.
func (r *Reporter) TestCompleted(ev engine.TestEvent) {
	if ev.Err != nil {
		r.log.Error("Spec reported an error",
			"spec", ev.FullName,
			"message", ev.Err.Message,
			"stack", ev.Err.Stack)
	}

	result := &types.TestResult{
		FullName: ev.FullName,
		Duration: ev.Duration,
		File:     ev.File,
	}

	switch ev.State {
	case engine.StatePassed:
		result.Status = types.StatusPassed
	case engine.StatePending:
		result.Status = types.StatusPending
	default:
		result.Status = types.StatusFailed
		if ev.Err != nil {
			result.FailedExpectations = []types.Expectation{
				{Message: ev.Err.Message, Stack: ev.Err.Stack},
			}
		} else {
			// The runner failed the spec without attaching error detail;
			// keep the record self-describing rather than empty
			result.FailedExpectations = []types.Expectation{
				{Message: "spec failed but the runner reported no error detail"},
			}
		}
	}

	r.results.Append(result)
}

// SuiteCompleted reacts to the run-level root suite only. Per-file suite
// completions carry no reporting semantics and are ignored. The verdict is
// published at most once per run, even if a duplicate root event arrives.
func (r *Reporter) SuiteCompleted(ev engine.SuiteEvent) {
	if !ev.Root {
		return
	}
	if r.published {
		r.log.Warn("Duplicate root suite completion ignored")
		return
	}

	r.outcome = r.results.Outcome()
	r.published = true

	stats := r.results.Stats()
	r.log.Info("Run completed",
		"outcome", r.outcome,
		"total", stats.Total,
		"passed", stats.Passed,
		"pending", stats.Pending,
		"failed", stats.Failed)

	for _, fn := range r.consumers {
		fn(r.outcome)
	}
}

// Results exposes the ResultSet for post-run consumers
func (r *Reporter) Results() *types.ResultSet {
	return r.results
}

// Outcome returns the published verdict; ok is false until the root suite
// has completed.
func (r *Reporter) Outcome() (types.RunOutcome, bool) {
	return r.outcome, r.published
}

var _ engine.Listener = (*Reporter)(nil)
