package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/testops/spec-harness/types"
)

// Config holds configuration for creating a SubprocessEngine
type Config struct {
	Entries        []types.SpecEntry
	RunnerBinary   string
	RunnerArgs     []string // arguments placed before the spec file path
	WorkDir        string
	ExtraEnv       []string // appended to the inherited environment
	DefaultTimeout time.Duration
	Concurrency    int // 0 selects a sensible default
	RealtimeOutput bool
	Log            log.Logger
	UI             ProgressIndicator // optional
}

// SubprocessEngine launches one runner process per spec file on a bounded
// worker pool. Event delivery to the listener is serialized, so listeners
// observe the stream as if the run were single-threaded.
type SubprocessEngine struct {
	entries        []types.SpecEntry
	executor       *specExecutor
	concurrency    int
	realtimeOutput bool
	log            log.Logger
	ui             ProgressIndicator
	workDir        string
	extraEnv       []string
	tracer         trace.Tracer

	mu     sync.Mutex // serializes listener delivery and raw log writes
	rawLog io.Writer
}

// fileResult carries one worker's per-file summary back for aggregation
type fileResult struct {
	entry   types.SpecEntry
	outcome *fileOutcome
	err     error
}

// NewSubprocessEngine creates an engine for the given spec entries
func NewSubprocessEngine(cfg Config) (*SubprocessEngine, error) {
	if cfg.Log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative")
	}

	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = min(runtime.NumCPU(), MaxReasonableConcurrency)
	}
	if concurrency > MaxReasonableConcurrency {
		cfg.Log.Warn("Very high concurrency requested", "concurrency", concurrency,
			"recommendation", "Consider using lower values to avoid resource exhaustion")
	}

	e := &SubprocessEngine{
		entries:        cfg.Entries,
		concurrency:    concurrency,
		realtimeOutput: cfg.RealtimeOutput,
		log:            cfg.Log.New("component", "engine"),
		ui:             cfg.UI,
		workDir:        cfg.WorkDir,
		extraEnv:       cfg.ExtraEnv,
		tracer:         otel.Tracer("spec engine"),
	}

	executor, err := newSpecExecutor(cfg.RunnerBinary, cfg.RunnerArgs, cfg.DefaultTimeout,
		e.runnerCommandContext, e.log)
	if err != nil {
		return nil, err
	}
	e.executor = executor

	return e, nil
}

// SetRawLog directs raw protocol lines to w for the next run. Pass nil to
// disable. Not safe to call while a run is in flight.
func (e *SubprocessEngine) SetRawLog(w io.Writer) {
	e.rawLog = w
}

// Run executes every spec file and streams events to l. The root
// SuiteEvent is emitted after all files have completed. Failing specs do
// not make Run fail; a non-nil error means the run itself was aborted.
func (e *SubprocessEngine) Run(ctx context.Context, l Listener) error {
	start := time.Now()
	e.log.Info("Starting spec run", "files", len(e.entries), "concurrency", e.concurrency)

	if len(e.entries) > 0 {
		if err := e.executeFiles(ctx, l); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("spec run aborted: %w", err)
	}

	// Every test event is in; the root suite observes the complete run
	e.mu.Lock()
	l.SuiteCompleted(SuiteEvent{Root: true})
	e.mu.Unlock()

	e.log.Info("Spec run completed", "files", len(e.entries), "duration", time.Since(start))
	return nil
}

func (e *SubprocessEngine) executeFiles(ctx context.Context, l Listener) error {
	// Conservative buffer: 2x concurrency or 100, whichever is smaller
	bufferSize := min(e.concurrency*2, 100)
	workChan := make(chan types.SpecEntry, bufferSize)
	resultChan := make(chan fileResult, bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, l, workChan, resultChan)
	}

	go func() {
		defer close(workChan)
		for _, entry := range e.entries {
			select {
			case workChan <- entry:
			case <-ctx.Done():
				e.log.Debug("Context cancelled while queueing spec files")
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for res := range resultChan {
		if res.err != nil {
			e.log.Error("Spec file execution failed", "file", res.entry.File, "error", res.err)
			continue
		}
		if res.outcome.timedOut {
			e.log.Error("Spec file timed out", "file", res.entry.File, "duration", res.outcome.duration)
		}
	}

	return nil
}

// worker is a goroutine that processes spec files from the work channel
func (e *SubprocessEngine) worker(ctx context.Context, wg *sync.WaitGroup, l Listener,
	workChan <-chan types.SpecEntry, resultChan chan<- fileResult) {
	defer wg.Done()

	for {
		select {
		case entry, ok := <-workChan:
			if !ok {
				return
			}

			res := e.runFile(ctx, entry, l)

			select {
			case resultChan <- res:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// runFile executes one spec file and dispatches its events
func (e *SubprocessEngine) runFile(ctx context.Context, entry types.SpecEntry, l Listener) fileResult {
	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("spec file %s", entry.File))
	defer span.End()

	if e.ui != nil {
		e.ui.StartFile(entry.File)
	}

	failedSpecs := 0
	deliver := func(w wireEvent, raw string) {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.writeRaw(raw)
		switch w.Event {
		case EventTestDone:
			ev := w.testEvent(entry.File)
			if ev.State != StatePassed && ev.State != StatePending {
				failedSpecs++
			}
			l.TestCompleted(ev)
		case EventSuiteDone:
			l.SuiteCompleted(w.suiteEvent(entry.File))
		}
	}
	chatter := func(line string) {
		if e.realtimeOutput {
			e.log.Info("Runner output", "file", entry.File, "output", line)
		} else {
			e.log.Debug("Runner output", "file", entry.File, "output", line)
		}
	}

	outcome, err := e.executor.run(ctx, entry, deliver, chatter)
	if err != nil {
		// The runner never started; record the file as failed so the run
		// still accounts for it
		e.dispatchSynthesizedFailure(l, entry, fmt.Sprintf("failed to start runner: %v", err))
		if e.ui != nil {
			e.ui.CompleteFile(entry.File, 1)
		}
		return fileResult{entry: entry, err: err}
	}

	if outcome.timedOut {
		e.dispatchSynthesizedFailure(l, entry,
			fmt.Sprintf("spec file timed out after %v", outcome.duration.Truncate(time.Millisecond)))
		failedSpecs++
	} else if outcome.exitErr != nil && outcome.testCount == 0 {
		msg := fmt.Sprintf("runner exited without reporting results: %v", outcome.exitErr)
		if outcome.stderrTail != "" {
			msg = fmt.Sprintf("%s\nstderr: %s", msg, outcome.stderrTail)
		}
		e.dispatchSynthesizedFailure(l, entry, msg)
		failedSpecs++
	}

	if e.ui != nil {
		e.ui.CompleteFile(entry.File, failedSpecs)
	}

	return fileResult{entry: entry, outcome: outcome}
}

// dispatchSynthesizedFailure reports one failed spec on behalf of a runner
// that died, timed out or never started, keeping per-file accounting intact.
func (e *SubprocessEngine) dispatchSynthesizedFailure(l Listener, entry types.SpecEntry, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l.TestCompleted(TestEvent{
		FullName: entry.File,
		State:    StateFailed,
		Err:      &ErrorDetail{Message: msg},
		File:     entry.File,
	})
}

func (e *SubprocessEngine) writeRaw(line string) {
	if e.rawLog == nil {
		return
	}
	if _, err := io.WriteString(e.rawLog, line+"\n"); err != nil {
		e.log.Debug("Failed to write raw event line", "error", err)
	}
}

// runnerCommandContext builds the runner process for one spec file. The
// subprocess environment carries the harness extras and W3C trace context
// for the active span, uppercased to the TRACEPARENT env var convention.
func (e *SubprocessEngine) runnerCommandContext(ctx context.Context, name string, arg ...string) (*exec.Cmd, func()) {
	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Dir = e.workDir

	env := append(os.Environ(), e.extraEnv...)
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, k := range carrier.Keys() {
		env = append(env, strings.ToUpper(k)+"="+carrier.Get(k))
	}
	cmd.Env = env

	return cmd, func() {}
}

var _ Engine = (*SubprocessEngine)(nil)
