package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/spec-harness/engine"
	"github.com/testops/spec-harness/reporter"
	"github.com/testops/spec-harness/types"
)

// RunResult aggregates one completed spec run.
type RunResult struct {
	RunID    string
	Outcome  types.RunOutcome
	Stats    types.ResultStats
	Duration time.Duration
	Results  []*types.TestResult
}

// String renders a one-line run summary.
func (r *RunResult) String() string {
	return fmt.Sprintf("%d/%d specs passed, %d failed, %d pending in %s",
		r.Stats.Passed, r.Stats.Total, r.Stats.Failed, r.Stats.Pending, formatDuration(r.Duration))
}

// ExecRequest carries the prepared inputs for one run.
type ExecRequest struct {
	RunID     string
	Entries   []types.SpecEntry
	ExtraEnv  []string                 // appended to each runner subprocess environment
	RawLog    io.Writer                // optional capture of raw protocol lines
	Progress  engine.ProgressIndicator // optional
	Listeners []engine.Listener        // observe the event stream alongside the reporter
	OnOutcome []reporter.OutcomeFunc   // invoked in order when the root suite completes
}

// SpecExecutor is responsible for running spec files.
type SpecExecutor interface {
	RunSpecs(ctx context.Context, req *ExecRequest) (*RunResult, error)
}

// DefaultSpecExecutor implements the SpecExecutor interface on top of the
// subprocess engine.
type DefaultSpecExecutor struct {
	cfg    *Config
	logger log.Logger
}

// NewDefaultSpecExecutor creates a new DefaultSpecExecutor.
func NewDefaultSpecExecutor(cfg *Config, logger log.Logger) *DefaultSpecExecutor {
	return &DefaultSpecExecutor{
		cfg:    cfg,
		logger: logger,
	}
}

// RunSpecs runs all spec entries of the request and returns the aggregate
// result. Failing specs do not produce an error; a non-nil error means the
// run itself could not complete.
func (e *DefaultSpecExecutor) RunSpecs(ctx context.Context, req *ExecRequest) (*RunResult, error) {
	e.logger.Info("Running specs...", "run_id", req.RunID, "files", len(req.Entries))

	rep := reporter.New(e.logger)
	for _, fn := range req.OnOutcome {
		rep.OnOutcome(fn)
	}

	var listener engine.Listener = rep
	if len(req.Listeners) > 0 {
		listener = engine.NewMultiListener(append([]engine.Listener{rep}, req.Listeners...)...)
	}

	eng, err := engine.NewSubprocessEngine(engine.Config{
		Entries:        req.Entries,
		RunnerBinary:   e.cfg.RunnerBinary,
		RunnerArgs:     e.cfg.RunnerArgs,
		WorkDir:        e.cfg.WorkDir,
		ExtraEnv:       req.ExtraEnv,
		DefaultTimeout: e.cfg.DefaultTimeout,
		Concurrency:    e.cfg.EffectiveConcurrency(),
		RealtimeOutput: e.cfg.OutputRealtimeLogs,
		Log:            e.logger,
		UI:             req.Progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if req.RawLog != nil {
		eng.SetRawLog(req.RawLog)
	}

	runCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := eng.Run(runCtx, listener); err != nil {
		e.logger.Error("Error running specs", "error", err)
		return nil, err
	}
	wallClock := time.Since(start)

	outcome, ok := rep.Outcome()
	if !ok {
		return nil, errors.New("run completed without a root suite event")
	}

	results := rep.Results()
	result := &RunResult{
		RunID:    req.RunID,
		Outcome:  outcome,
		Stats:    results.Stats(),
		Duration: wallClock,
		Results:  results.All(),
	}
	e.logger.Info("Spec run completed", "run_id", req.RunID, "outcome", outcome, "summary", result.String())
	return result, nil
}
