package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/testops/spec-harness/engine"
	"github.com/testops/spec-harness/envprep"
	"github.com/testops/spec-harness/exitcodes"
	"github.com/testops/spec-harness/loader"
	"github.com/testops/spec-harness/logging"
	"github.com/testops/spec-harness/marker"
	"github.com/testops/spec-harness/metrics"
	"github.com/testops/spec-harness/reporter"
	"github.com/testops/spec-harness/service"
	"github.com/testops/spec-harness/types"
	"github.com/testops/spec-harness/ui"
)

// harness implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &harness{}

// harness runs browser spec suites through an external runner and reports
// the results.
type harness struct {
	ctx     context.Context
	config  *Config
	version string

	preparer  *envprep.Preparer
	addons    *envprep.AddonsManager
	executor  SpecExecutor
	scheduler RunScheduler
	formatter ResultFormatter
	recorder  MetricsReporter
	tracker   *service.RunTracker
	tracer    trace.Tracer

	result *RunResult

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*harness, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating harness with config",
		"specDir", config.SpecDir,
		"manifest", config.Manifest,
		"runnerBinary", config.RunnerBinary,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	preparer, err := envprep.NewPreparer(config.LogDir, config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create environment preparer: %w", err)
	}

	var addonOpts []envprep.Option
	if config.FixtureServer {
		addonOpts = append(addonOpts, envprep.WithFixtureServer(config.SpecDir))
	}
	addons, err := envprep.NewAddonsManager(config.Log, addonOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create addons manager: %w", err)
	}
	config.Log.Info("harness.New: created environment preparer and spec executor")

	return &harness{
		ctx:              ctx,
		config:           config,
		version:          version,
		preparer:         preparer,
		addons:           addons,
		executor:         NewDefaultSpecExecutor(config, config.Log),
		scheduler:        NewDefaultRunScheduler(config.RunInterval, config.RunOnce, config.Log),
		formatter:        NewConsoleResultFormatter(config.Log, true),
		recorder:         NewDefaultMetricsReporter(),
		tracer:           otel.Tracer("spec harness"),
		shutdownCallback: shutdownCallback,
	}, nil
}

// SetRunTracker publishes run state to the given tracker, which backs the
// status endpoint.
func (h *harness) SetRunTracker(t *service.RunTracker) {
	h.tracker = t
}

// Start runs the spec suites periodically at the configured interval.
// Start implements the cliapp.Lifecycle interface.
func (h *harness) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			h.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	h.ctx = ctx

	if h.config.RunOnce {
		h.config.Log.Info("Starting spec-harness in run-once mode")
	} else {
		h.config.Log.Info("Starting spec-harness in continuous mode", "interval", h.config.RunInterval)
	}

	h.config.Log.Debug("Harness config paths",
		"config.SpecDir", h.config.SpecDir,
		"config.Manifest", h.config.Manifest,
		"config.LogDir", h.config.LogDir)

	// Addons outlive individual runs; specs fetch fixtures for as long as
	// the service is up
	if err := h.addons.Start(ctx); err != nil {
		h.config.Log.Error("Runtime error starting addons", "error", err)
		return cli.Exit(err.Error(), 2)
	}

	h.scheduler.RegisterCallback(h.runSpecs)
	if err := h.scheduler.Start(ctx); err != nil {
		// For runtime errors (like configuration issues or a missing
		// runner), return exit code 2
		h.config.Log.Error("Runtime error running specs", "error", err)
		return cli.Exit(err.Error(), 2)
	}

	// If in run-once mode, trigger shutdown and return
	if h.config.RunOnce {
		h.config.Log.Info("Specs completed, exiting (run-once mode)")

		// Check if any specs failed and return appropriate exit code
		if h.result != nil && !h.result.Outcome.Passed() {
			h.config.Log.Warn("Run-once spec run completed with failures, returning exit code 1")
			// Return exit code 1 for spec failures (assertions failed)
			return NewRunFailureError(h.result.String())
		}

		// Only need to call this when we're in run-once mode and all specs passed
		go func() {
			h.shutdownCallback(nil)
		}()
		return nil // Success (exit code 0)
	}

	h.config.Log.Debug("spec-harness started successfully")
	return nil
}

// runSpecs prepares the run environment, executes every selected spec file
// and feeds the result sinks, console table, metrics and status tracker.
func (h *harness) runSpecs() error {
	runID := envprep.NewRunID()
	ctx, span := h.tracer.Start(h.ctx, "spec run")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID))

	h.config.Log.Info("Running all specs...", "run_id", runID)

	if h.config.MinRunnerVersion != "" {
		version, err := envprep.CheckRunner(ctx, h.config.RunnerBinary, h.config.MinRunnerVersion)
		if err != nil {
			return NewRuntimeError(fmt.Errorf("runner preflight failed: %w", err))
		}
		h.config.Log.Debug("Runner version check passed", "version", version)
	} else if _, err := exec.LookPath(h.config.RunnerBinary); err != nil {
		return NewRuntimeError(fmt.Errorf("runner binary %q not found in PATH: %w", h.config.RunnerBinary, err))
	}

	snap := h.config.Snapshot(runID)
	env, err := h.preparer.Prepare(runID, snap)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to prepare run environment: %w", err))
	}

	// Specs are re-resolved on every run so interval mode picks up new files
	ldr, err := loader.NewLoader(loader.Config{
		Log:            h.config.Log,
		SpecDir:        h.config.SpecDir,
		ManifestFile:   h.config.Manifest,
		Glob:           h.config.Glob,
		TargetSuite:    h.config.TargetSuite,
		DefaultTimeout: h.config.DefaultTimeout,
	})
	if err != nil {
		return NewRuntimeError(err)
	}
	entries := ldr.Entries()

	fileLogger, err := logging.NewFileLogger(h.config.LogDir, runID)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create file logger: %w", err))
	}
	fileLogger.SetConfigSnapshot(snap)

	rawLog, err := fileLogger.EventLogWriter()
	if err != nil {
		h.config.Log.Warn("Raw event log unavailable", "error", err)
		rawLog = nil
	}

	var progress engine.ProgressIndicator
	if h.config.ShowProgress {
		progress = ui.NewConsoleProgress(h.config.Log, h.config.ProgressInterval, len(entries))
	} else {
		progress = ui.NewNoOpProgress()
	}
	defer progress.Stop()

	// The marker is the first outcome consumer: the run directory carries
	// the verdict the moment the root suite completes
	fileMarker := marker.NewFileMarker(env.RunDir, h.config.Log)
	outcomeConsumers := []reporter.OutcomeFunc{
		func(o types.RunOutcome) {
			if err := fileMarker.Apply(o); err != nil {
				h.config.Log.Error("Failed to apply outcome marker", "error", err)
			}
		},
	}

	if h.tracker != nil {
		h.tracker.BeginRun(runID)
	}

	result, err := h.executor.RunSpecs(ctx, &ExecRequest{
		RunID:     runID,
		Entries:   entries,
		ExtraEnv:  h.runnerEnv(env),
		RawLog:    rawLog,
		Progress:  progress,
		Listeners: []engine.Listener{newSpecMetricsListener(runID)},
		OnOutcome: outcomeConsumers,
	})
	if err != nil {
		// This is a runtime error (not a spec failure)
		metrics.RecordError("run_aborted")
		return NewRuntimeError(err)
	}
	h.result = result

	for _, res := range result.Results {
		if err := fileLogger.Consume(res); err != nil {
			h.config.Log.Error("Failed to log spec result", "spec", res.FullName, "error", err)
		}
	}
	if err := fileLogger.CompleteWithTiming(result.Duration); err != nil {
		h.config.Log.Error("Failed to complete result sinks", "error", err)
	}

	if err := h.formatter.FormatResults(result); err != nil {
		h.config.Log.Error("Failed to print results", "error", err)
	}
	h.recorder.ReportResults(runID, result)
	if h.tracker != nil {
		h.tracker.CompleteRun(runID, result.Results, result.Outcome)
	}

	h.config.Log.Info("Run artifacts written", "run_id", runID, "outcome", result.Outcome, "dir", fileLogger.Directory())
	return nil
}

// runnerEnv assembles the extra environment handed to runner subprocesses.
func (h *harness) runnerEnv(env *envprep.Environment) []string {
	extra := env.RunnerEnv(h.addons.FixtureURL())
	if h.config.RunnerLogLevel != "" {
		extra = append(extra, fmt.Sprintf("%s=%s", envprep.EnvRunnerLogLevel, h.config.RunnerLogLevel))
	}
	return extra
}

// Stop stops the spec-harness service.
// Stop implements the cliapp.Lifecycle interface.
func (h *harness) Stop(ctx context.Context) error {
	h.config.Log.Info("Stopping spec-harness")

	// Check if we're already stopped
	if h.scheduler.Stopped() {
		h.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	if err := h.scheduler.Stop(); err != nil {
		return err
	}
	if err := h.addons.Stop(ctx); err != nil {
		h.config.Log.Error("Failed to stop addons", "error", err)
	}

	h.config.Log.Info("spec-harness stopped successfully")
	return nil
}

// Stopped returns true if the spec-harness service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (h *harness) Stopped() bool {
	return h.scheduler.Stopped()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (h *harness) WaitForShutdown(ctx context.Context) error {
	return h.scheduler.WaitForShutdown(ctx)
}
