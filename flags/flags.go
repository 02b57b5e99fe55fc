package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
	oprpc "github.com/ethereum-optimism/optimism/op-service/rpc"
)

const EnvVarPrefix = "SPEC_HARNESS"

var (
	// Required through CheckRequired rather than the cli-level Required
	// field, which would also block subcommands like validate.
	SpecDir = &cli.StringFlag{
		Name:    "specdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SPECDIR"),
		Usage:   "Path to the directory containing spec files",
	}
	Manifest = &cli.StringFlag{
		Name:    "manifest",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "MANIFEST"),
		Usage:   "Path to suite manifest file (eg. 'specs.yaml'). Omit to discover specs by glob.",
	}
	TargetSuite = &cli.StringFlag{
		Name:    "suite",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:   "Suite from the manifest to run (eg. 'smoke'). Requires --manifest.",
	}
	Glob = &cli.StringFlag{
		Name:    "glob",
		Value:   "*.spec.js",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GLOB"),
		Usage:   "Filename pattern used to discover spec files when no manifest is given",
	}
	RunnerBinary = &cli.StringFlag{
		Name:    "runner-binary",
		Value:   "spec-runner",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUNNER_BINARY"),
		Usage:   "Runner executable to invoke for each spec file",
	}
	RunnerArgs = &cli.StringSliceFlag{
		Name:    "runner-args",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUNNER_ARGS"),
		Usage:   "Extra arguments passed to the runner ahead of the spec file path",
	}
	MinRunnerVersion = &cli.StringFlag{
		Name:    "min-runner-version",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "MIN_RUNNER_VERSION"),
		Usage:   "Minimum runner version required (eg. '4.2.0'). Checked against 'runner --version'.",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between spec runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	DefaultTimeout = &cli.DurationFlag{
		Name:    "default-timeout",
		Value:   5 * time.Minute,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DEFAULT_TIMEOUT"),
		Usage:   "Default timeout for one spec file, overridable per spec in the manifest",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMEOUT"),
		Usage:   "Timeout for the whole run (if specified)",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store per-run artifacts (defaults to 'logs')",
	}
	WorkDir = &cli.StringFlag{
		Name:    "workdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WORKDIR"),
		Usage:   "Working directory for runner subprocesses (defaults to the spec directory)",
	}
	OutputRealtimeLogs = &cli.BoolFlag{
		Name:    "output-realtime-logs",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_REALTIME_LOGS"),
		Usage:   "If enabled, runner output will be streamed to the console in realtime",
	}
	RunnerLogLevel = &cli.StringFlag{
		Name:    "runner-log-level",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUNNER_LOG_LEVEL"),
		Usage:   "Log level exported to runner subprocesses",
	}
	Serial = &cli.BoolFlag{
		Name:    "serial",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERIAL"),
		Usage:   "Run spec files one at a time instead of in parallel",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONCURRENCY"),
		Usage:   "Number of concurrent spec files (0 = auto-determine)",
	}
	ShowProgress = &cli.BoolFlag{
		Name:    "show-progress",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHOW_PROGRESS"),
		Usage:   "Log periodic progress updates during long runs",
	}
	ProgressInterval = &cli.DurationFlag{
		Name:    "progress-interval",
		Value:   30 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESS_INTERVAL"),
		Usage:   "Interval between progress updates when --show-progress is set",
	}
	FixtureServer = &cli.BoolFlag{
		Name:    "fixture-server",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FIXTURE_SERVER"),
		Usage:   "Serve the spec directory over HTTP so specs can fetch fixtures from it",
	}
)

var requiredFlags = []cli.Flag{
	SpecDir,
}

var optionalFlags = []cli.Flag{
	Manifest,
	TargetSuite,
	Glob,
	RunnerBinary,
	RunnerArgs,
	MinRunnerVersion,
	RunInterval,
	DefaultTimeout,
	Timeout,
	LogDir,
	WorkDir,
	OutputRealtimeLogs,
	RunnerLogLevel,
	Serial,
	Concurrency,
	ShowProgress,
	ProgressInterval,
	FixtureServer,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oprpc.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
