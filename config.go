package harness

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/spec-harness/flags"
	"github.com/testops/spec-harness/types"
)

// Config holds the application configuration
type Config struct {
	SpecDir            string
	Manifest           string        // Path to the suite manifest, empty in manifestless mode
	TargetSuite        string        // Suite from the manifest to run, empty runs everything
	Glob               string        // Discovery pattern used when no manifest is given
	RunnerBinary       string        // Runner executable invoked per spec file
	RunnerArgs         []string      // Extra runner arguments, inserted before the spec file path
	MinRunnerVersion   string        // Minimum runner version, checked before each run when set
	RunInterval        time.Duration // Interval between spec runs
	RunOnce            bool          // Indicates if the service should exit after one run
	DefaultTimeout     time.Duration // Default timeout for one spec file, can be overridden per spec
	Timeout            time.Duration // Timeout for the whole run (if specified)
	LogDir             string        // Directory to store run artifacts
	WorkDir            string        // Working directory for runner subprocesses
	OutputRealtimeLogs bool          // If enabled, runner output will be streamed to the console in realtime
	RunnerLogLevel     string        // Log level exported to runner subprocesses
	Serial             bool          // Whether to run spec files one at a time instead of in parallel
	Concurrency        int           // Number of concurrent spec files (0 = auto-determine)
	ShowProgress       bool          // Whether to log periodic progress updates during long runs
	ProgressInterval   time.Duration // Interval between progress updates when ShowProgress is 'true'
	FixtureServer      bool          // Serve the spec directory over HTTP for fixture fetches
	Log                log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger, specDir string) (*Config, error) {
	// Parse flags
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if specDir == "" {
		return nil, errors.New("spec directory is required")
	}

	manifest := ctx.String(flags.Manifest.Name)
	targetSuite := ctx.String(flags.TargetSuite.Name)
	if targetSuite != "" && manifest == "" {
		return nil, errors.New("suite selection requires a manifest")
	}

	var absManifest string
	if manifest != "" {
		var err error
		absManifest, err = filepath.Abs(manifest)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for manifest '%s': %w", manifest, err)
		}
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	// Get log directory, default to "logs" if not specified
	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}

	// Resolve the absolute paths
	absSpecDir, err := filepath.Abs(specDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for spec directory '%s': %w", specDir, err)
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	// Runners execute from the spec directory unless told otherwise
	workDir := ctx.String(flags.WorkDir.Name)
	if workDir == "" {
		workDir = absSpecDir
	} else {
		workDir, err = filepath.Abs(workDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for work directory '%s': %w", workDir, err)
		}
	}

	return &Config{
		SpecDir:            absSpecDir,
		Manifest:           absManifest,
		TargetSuite:        targetSuite,
		Glob:               ctx.String(flags.Glob.Name),
		RunnerBinary:       ctx.String(flags.RunnerBinary.Name),
		RunnerArgs:         ctx.StringSlice(flags.RunnerArgs.Name),
		MinRunnerVersion:   ctx.String(flags.MinRunnerVersion.Name),
		RunInterval:        runInterval,
		RunOnce:            runOnce,
		DefaultTimeout:     ctx.Duration(flags.DefaultTimeout.Name),
		Timeout:            ctx.Duration(flags.Timeout.Name),
		OutputRealtimeLogs: ctx.Bool(flags.OutputRealtimeLogs.Name),
		RunnerLogLevel:     ctx.String(flags.RunnerLogLevel.Name),
		Serial:             ctx.Bool(flags.Serial.Name),
		Concurrency:        ctx.Int(flags.Concurrency.Name),
		ShowProgress:       ctx.Bool(flags.ShowProgress.Name),
		ProgressInterval:   ctx.Duration(flags.ProgressInterval.Name),
		FixtureServer:      ctx.Bool(flags.FixtureServer.Name),
		LogDir:             logDir,
		WorkDir:            workDir,
		Log:                log,
	}, nil
}

// EffectiveConcurrency resolves the worker count handed to the engine.
// Serial mode pins it to one; otherwise the engine auto-determines when zero.
func (c *Config) EffectiveConcurrency() int {
	if c.Serial {
		return 1
	}
	return c.Concurrency
}

// Snapshot captures the effective configuration for one run so the preparer
// can persist it into the run directory.
func (c *Config) Snapshot(runID string) *types.EffectiveConfigSnapshot {
	return &types.EffectiveConfigSnapshot{
		Runner: types.RunnerConfigSnapshot{
			Binary:           c.RunnerBinary,
			MinVersion:       c.MinRunnerVersion,
			DefaultTimeout:   c.DefaultTimeout,
			Timeout:          c.Timeout,
			Serial:           c.Serial,
			Concurrency:      c.Concurrency,
			ShowProgress:     c.ShowProgress,
			ProgressInterval: c.ProgressInterval,
		},
		Logging: types.LoggingConfigSnapshot{
			RunnerLogLevel:     c.RunnerLogLevel,
			OutputRealtimeLogs: c.OutputRealtimeLogs,
		},
		Execution: types.ExecutionConfigSnapshot{
			RunInterval:  c.RunInterval,
			RunOnce:      c.RunOnce,
			TargetSuite:  c.TargetSuite,
			Manifestless: c.Manifest == "",
		},
		Paths: types.PathsConfigSnapshot{
			SpecDir:  c.SpecDir,
			Manifest: c.Manifest,
			LogDir:   c.LogDir,
			WorkDir:  c.WorkDir,
		},
		RunID: runID,
	}
}
