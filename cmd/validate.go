package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/testops/spec-harness/loader"
	"github.com/testops/spec-harness/types"
)

// ValidateCommand defines the "validate" command for checking the spec
// selection without starting any runner process.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Resolve and lint the spec selection without running it",
		ArgsUsage: " ",
		Description: `Resolves the spec selection exactly as a run would and prints the result:
  - With a manifest: parses the YAML, resolves suite inheritance, checks for
    cycles and unknown parents, and verifies every referenced file exists.
  - Without a manifest: discovers spec files under the spec directory by glob.

The command exits non-zero when the selection is invalid, so it can guard a
manifest in CI before any runner time is spent.

Examples:
  spec-harness validate --specdir ./specs
  spec-harness validate --specdir ./specs --manifest ./specs/manifest.yaml
  spec-harness validate --specdir ./specs --manifest ./specs/manifest.yaml --suite smoke
  spec-harness validate --manifest ./specs/manifest.yaml --list-suites`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "specdir",
				Usage:   "directory containing the spec files",
				EnvVars: []string{"SPEC_HARNESS_SPECDIR"},
			},
			&cli.StringFlag{
				Name:    "manifest",
				Usage:   "path to the YAML spec manifest",
				EnvVars: []string{"SPEC_HARNESS_MANIFEST"},
			},
			&cli.StringFlag{
				Name:  "suite",
				Usage: "only resolve the named manifest suite",
			},
			&cli.StringFlag{
				Name:  "glob",
				Usage: "spec file pattern for manifestless discovery",
				Value: loader.DefaultGlob,
			},
			&cli.DurationFlag{
				Name:  "default-timeout",
				Usage: "timeout shown for specs without an explicit one",
				Value: 5 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "list-suites",
				Usage: "list the suites declared in the manifest",
			},
		},
		Action: validateAction,
	}
}

func validateAction(c *cli.Context) error {
	manifestPath := c.String("manifest")
	if manifestPath != "" {
		abs, err := filepath.Abs(manifestPath)
		if err != nil {
			return fmt.Errorf("resolve manifest path: %w", err)
		}
		manifestPath = abs
	}

	// Handle list command
	if c.Bool("list-suites") {
		if manifestPath == "" {
			return fmt.Errorf("--list-suites requires --manifest")
		}
		return listSuites(manifestPath)
	}

	specDir := c.String("specdir")
	if specDir == "" {
		return fmt.Errorf("--specdir or SPEC_HARNESS_SPECDIR environment variable is required")
	}
	absSpecDir, err := filepath.Abs(specDir)
	if err != nil {
		return fmt.Errorf("resolve spec directory: %w", err)
	}

	log.Info("validating spec selection",
		"specdir", absSpecDir,
		"manifest", manifestPath,
		"suite", c.String("suite"),
	)

	l, err := loader.NewLoader(loader.Config{
		Log:            log.Root(),
		SpecDir:        absSpecDir,
		ManifestFile:   manifestPath,
		Glob:           c.String("glob"),
		TargetSuite:    c.String("suite"),
		DefaultTimeout: c.Duration("default-timeout"),
	})
	if err != nil {
		return fmt.Errorf("spec selection is invalid: %w", err)
	}

	entries := l.Entries()
	printEntriesTable(entries)
	fmt.Printf("\n%d spec files selected\n", len(entries))
	return nil
}

// listSuites prints the suites declared in the manifest to stdout. The
// listing shows the manifest as written; inheritance is not expanded here.
func listSuites(manifestPath string) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var manifest types.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	if len(manifest.Suites) == 0 {
		fmt.Println("No suites declared")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"SUITE", "DESCRIPTION", "SPECS", "INHERITS"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "DESCRIPTION", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "SPECS", Align: text.AlignRight},
	})
	for _, suite := range manifest.Suites {
		inherits := "-"
		if len(suite.Inherits) > 0 {
			inherits = fmt.Sprintf("%v", suite.Inherits)
		}
		tw.AppendRow(table.Row{suite.ID, suite.Description, len(suite.Specs), inherits})
	}
	tw.Render()
	return nil
}

// printEntriesTable renders the resolved entries in run order.
func printEntriesTable(entries []types.SpecEntry) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"SUITE", "SPEC FILE", "TIMEOUT"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "SPEC FILE", WidthMax: 120, WidthMaxEnforcer: text.WrapSoft},
		{Name: "TIMEOUT", Align: text.AlignRight},
	})
	for _, e := range entries {
		suite := e.Suite
		if suite == "" {
			suite = "-"
		}
		tw.AppendRow(table.Row{suite, e.File, e.Timeout})
	}
	tw.Render()
}
