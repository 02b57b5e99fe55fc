package logging

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/testops/spec-harness/types"
)

// JUnitSink writes the run's results as JUnit XML for CI systems. Each spec
// file becomes a testsuite and each spec a testcase. Pending specs are
// reported as skipped; every failed expectation becomes its own failure
// element.
type JUnitSink struct {
	runDir string

	mu      sync.Mutex
	results map[string][]*types.TestResult
}

func NewJUnitSink(runDir string) *JUnitSink {
	return &JUnitSink{
		runDir:  runDir,
		results: make(map[string][]*types.TestResult),
	}
}

type junitTestSuites struct {
	XMLName   xml.Name          `xml:"testsuites"`
	Tests     int               `xml:"tests,attr"`
	Failures  int               `xml:"failures,attr"`
	Skipped   int               `xml:"skipped,attr"`
	Time      string            `xml:"time,attr"`
	TestSuite []*junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	Name     string `xml:"name,attr"`
	Tests    int    `xml:"tests,attr"`
	Failures int    `xml:"failures,attr"`
	Skipped  int    `xml:"skipped,attr"`
	Time     string `xml:"time,attr"`

	TestCase []*junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name string `xml:"name,attr"`
	// Decimal point is needed for distinguishing it from nanoseconds
	// notation, e.g. "1.0" for one second.
	Time string `xml:"time,attr,omitempty"`

	Failure []*junitFailure `xml:"failure,omitempty"`
	Skipped *junitSkipped   `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Details string `xml:",cdata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// Consume collects a result for the final document.
func (s *JUnitSink) Consume(result *types.TestResult, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[runID] = append(s.results[runID], result)
	return nil
}

// Complete writes results.xml for the run.
func (s *JUnitSink) Complete(runID string) error {
	s.mu.Lock()
	results := s.results[runID]
	s.mu.Unlock()

	suites := buildJUnitDocument(results)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JUnit document: %w", err)
	}
	data = append([]byte(xml.Header), data...)

	path := filepath.Join(s.runDir, JUnitFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JUnit file %s: %w", path, err)
	}
	return nil
}

func buildJUnitDocument(results []*types.TestResult) *junitTestSuites {
	suites := &junitTestSuites{}

	// Group by spec file, preserving first-seen file order and per-file
	// completion order.
	byFile := make(map[string]*junitTestSuite)
	var fileOrder []string
	var totalDuration time.Duration

	for _, r := range results {
		file := r.File
		if file == "" {
			file = "unknown"
		}
		suite, ok := byFile[file]
		if !ok {
			suite = &junitTestSuite{Name: file}
			byFile[file] = suite
			fileOrder = append(fileOrder, file)
		}

		tc := &junitTestCase{
			Name: r.FullName,
			Time: fmt.Sprintf("%.3f", r.Duration.Seconds()),
		}

		switch r.Status {
		case types.StatusPending:
			tc.Skipped = &junitSkipped{Message: "pending"}
			suite.Skipped++
			suites.Skipped++
		case types.StatusFailed:
			for _, exp := range r.FailedExpectations {
				tc.Failure = append(tc.Failure, &junitFailure{
					Message: exp.Message,
					Details: exp.Stack,
				})
			}
			suite.Failures++
			suites.Failures++
		}

		suite.Tests++
		suites.Tests++
		totalDuration += r.Duration
	}

	var suiteDuration = make(map[string]time.Duration)
	for _, r := range results {
		file := r.File
		if file == "" {
			file = "unknown"
		}
		suiteDuration[file] += r.Duration
	}

	for _, file := range fileOrder {
		suite := byFile[file]
		suite.Time = fmt.Sprintf("%.3f", suiteDuration[file].Seconds())
		suites.TestSuite = append(suites.TestSuite, suite)
	}
	suites.Time = fmt.Sprintf("%.3f", totalDuration.Seconds())

	return suites
}
