package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/testops/spec-harness/types"
)

// HTMLSink renders the run's results as a browsable HTML report. The page
// body carries the outcome class ("all-passing" or "has-failures") so the
// verdict is readable from the markup alone.
type HTMLSink struct {
	formatter *HTMLFormatter
	runDir    string
	fileName  string

	testResults     map[string][]*types.TestResult
	configSnapshots map[string]*types.EffectiveConfigSnapshot
}

// NewHTMLSink creates a new HTML sink writing into the given run directory.
func NewHTMLSink(runDir, fileName, templateContent string) (*HTMLSink, error) {
	formatter, err := NewHTMLFormatter(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTML formatter: %w", err)
	}

	return &HTMLSink{
		formatter:       formatter,
		runDir:          runDir,
		fileName:        fileName,
		testResults:     make(map[string][]*types.TestResult),
		configSnapshots: make(map[string]*types.EffectiveConfigSnapshot),
	}, nil
}

// SetConfigSnapshot associates an effective config snapshot with a runID
func (s *HTMLSink) SetConfigSnapshot(runID string, snap *types.EffectiveConfigSnapshot) {
	if runID == "" || snap == nil {
		return
	}
	s.configSnapshots[runID] = snap
}

// Consume collects spec results for later HTML generation
func (s *HTMLSink) Consume(result *types.TestResult, runID string) error {
	if s.testResults[runID] == nil {
		s.testResults[runID] = make([]*types.TestResult, 0)
	}
	s.testResults[runID] = append(s.testResults[runID], result)
	return nil
}

// Complete generates the HTML report file
func (s *HTMLSink) Complete(runID string) error {
	return s.CompleteWithTiming(runID, 0)
}

// CompleteWithTiming generates the HTML report with the wall clock duration
func (s *HTMLSink) CompleteWithTiming(runID string, wallClock time.Duration) error {
	results, exists := s.testResults[runID]
	if !exists {
		results = make([]*types.TestResult, 0)
	}

	data := NewReportBuilder().BuildWithTiming(results, runID, wallClock)
	if snap, ok := s.configSnapshots[runID]; ok {
		data.SetConfig(snap)
	}

	if err := os.MkdirAll(s.runDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.runDir, err)
	}

	htmlOutput, err := s.formatter.Format(data)
	if err != nil {
		return fmt.Errorf("failed to format HTML: %w", err)
	}

	htmlFile := filepath.Join(s.runDir, s.fileName)
	if err := os.WriteFile(htmlFile, []byte(htmlOutput), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	return nil
}
