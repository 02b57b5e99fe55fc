package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	harness "github.com/testops/spec-harness"
	"github.com/testops/spec-harness/flags"
	"github.com/testops/spec-harness/service"
)

var (
	Version   = "v0.3.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "spec-harness"
	app.Usage = "Spec Runner Harness Service"
	app.Description = "spec-harness drives spec runner processes and reports their results"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Commands = []*cli.Command{
		ValidateCommand(),
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Check for typed runtime errors
			if harness.IsRuntimeError(err) {
				// For runtime errors, use exit code 2
				cli.HandleExitCoder(cli.Exit(err.Error(), 2))
			} else if harness.IsRunFailureError(err) {
				// For spec failures, use exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			} else {
				// For other unspecified errors, default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			}
		}
	}

	// Start telemetry. Exporters only come up when an OTLP endpoint is
	// configured; without one the global no-op providers stay in place.
	ctx := context.Background()
	shutdownTelemetry := setupTelemetry(app.Name, app.Version)
	defer shutdownTelemetry()

	// Start server
	svc := service.New(service.Config{})
	svc.Start(ctx)
	defer svc.Shutdown()

	app.Action = cliapp.LifecycleCmd(func(cliCtx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
		return run(cliCtx, closeApp, svc)
	})

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func setupTelemetry(serviceName, serviceVersion string) func() {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func() {}
	}

	shutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(serviceName),
		otelconfig.WithServiceVersion(serviceVersion),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	return shutdown
}

func run(cliCtx *cli.Context, closeApp context.CancelCauseFunc, svc *service.Service) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(cliCtx)
	logger := oplog.NewLogger(oplog.AppOut(cliCtx), logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())
	oplog.SetupDefaults()

	cfg, err := harness.NewConfig(cliCtx, logger, cliCtx.String(flags.SpecDir.Name))
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, harness.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	cfg.Log.Debug("Config", "config", cfg)

	h, err := harness.New(cliCtx.Context, cfg, Version, closeApp)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, harness.NewRuntimeError(fmt.Errorf("failed to create harness: %w", err))
	}
	// Completed runs become visible on the status server
	h.SetRunTracker(svc.Tracker)

	return h, nil
}
