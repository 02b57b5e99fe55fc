package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/testops/spec-harness/types"
)

// TextSummarySink writes a plain text run summary into the run directory.
type TextSummarySink struct {
	formatter   *TextFormatter
	runDir      string
	fileName    string
	testResults map[string][]*types.TestResult
}

// NewTextSummarySink creates a new text summary sink.
func NewTextSummarySink(runDir, fileName string) *TextSummarySink {
	return &TextSummarySink{
		formatter:   NewTextFormatter(false),
		runDir:      runDir,
		fileName:    fileName,
		testResults: make(map[string][]*types.TestResult),
	}
}

// Consume collects spec results for later summary generation
func (s *TextSummarySink) Consume(result *types.TestResult, runID string) error {
	if s.testResults[runID] == nil {
		s.testResults[runID] = make([]*types.TestResult, 0)
	}
	s.testResults[runID] = append(s.testResults[runID], result)
	return nil
}

// Complete generates the text summary file
func (s *TextSummarySink) Complete(runID string) error {
	return s.CompleteWithTiming(runID, 0)
}

// CompleteWithTiming generates the text summary with the wall clock duration
func (s *TextSummarySink) CompleteWithTiming(runID string, wallClock time.Duration) error {
	results, exists := s.testResults[runID]
	if !exists {
		results = make([]*types.TestResult, 0)
	}

	data := NewReportBuilder().BuildWithTiming(results, runID, wallClock)

	if err := os.MkdirAll(s.runDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.runDir, err)
	}

	content, err := s.formatter.Format(data)
	if err != nil {
		return fmt.Errorf("failed to format text summary: %w", err)
	}

	summaryFile := filepath.Join(s.runDir, s.fileName)
	if err := os.WriteFile(summaryFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}

	return nil
}

// TableReporter generates console table output for a completed run.
type TableReporter struct {
	formatter *TableFormatter
}

// NewTableReporter creates a new table reporter. With showSpecs every spec
// gets its own row under its file.
func NewTableReporter(title string, showSpecs bool) *TableReporter {
	return &TableReporter{
		formatter: NewTableFormatter(title, showSpecs),
	}
}

// GenerateTable renders the results table and returns it as a string.
func (tr *TableReporter) GenerateTable(results []*types.TestResult, runID string) (string, error) {
	data := NewReportBuilder().Build(results, runID)
	return tr.formatter.Format(data)
}

// GenerateTableWithTiming renders the results table using the wall clock
// run duration for the footer.
func (tr *TableReporter) GenerateTableWithTiming(results []*types.TestResult, runID string, wallClock time.Duration) (string, error) {
	data := NewReportBuilder().BuildWithTiming(results, runID, wallClock)
	return tr.formatter.Format(data)
}

// PrintTable renders the results table to stdout.
func (tr *TableReporter) PrintTable(results []*types.TestResult, runID string) error {
	content, err := tr.GenerateTable(results, runID)
	if err != nil {
		return err
	}

	_, err = fmt.Print(content)
	return err
}
