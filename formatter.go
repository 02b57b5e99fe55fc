package harness

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/spec-harness/reporting"
)

// ResultFormatter is responsible for formatting and displaying run results.
type ResultFormatter interface {
	FormatResults(result *RunResult) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger    log.Logger
	showSpecs bool
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter. With
// showSpecs every spec gets its own table row under its file.
func NewConsoleResultFormatter(logger log.Logger, showSpecs bool) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger:    logger,
		showSpecs: showSpecs,
	}
}

// FormatResults renders the run results table to stdout.
func (f *ConsoleResultFormatter) FormatResults(result *RunResult) error {
	f.logger.Info("Printing results...")

	title := fmt.Sprintf("Spec Results (%s)", formatDuration(result.Duration))
	reporter := reporting.NewTableReporter(title, f.showSpecs)
	content, err := reporter.GenerateTableWithTiming(result.Results, result.RunID, result.Duration)
	if err != nil {
		return fmt.Errorf("failed to render results table: %w", err)
	}

	fmt.Print(content)
	fmt.Printf("%s %s\n", outcomeString(result.Outcome), result.String())
	return nil
}
