package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/testops/spec-harness/types"
)

// ResultsJSONSink writes the full result set of a run as results.json.
// The document is assembled in memory and written once on Complete so a
// crashed run never leaves a truncated file behind.
type ResultsJSONSink struct {
	runDir string

	mu      sync.Mutex
	results map[string][]*types.TestResult
}

func NewResultsJSONSink(runDir string) *ResultsJSONSink {
	return &ResultsJSONSink{
		runDir:  runDir,
		results: make(map[string][]*types.TestResult),
	}
}

// jsonResultRecord mirrors types.TestResult with the duration flattened to
// milliseconds for consumers that do not parse Go durations.
type jsonResultRecord struct {
	FullName           string              `json:"fullName"`
	Status             types.Status        `json:"status"`
	FailedExpectations []types.Expectation `json:"failedExpectations,omitempty"`
	File               string              `json:"file,omitempty"`
	DurationMs         float64             `json:"durationMs"`
}

type jsonRunDocument struct {
	RunID      string             `json:"runId"`
	Outcome    string             `json:"outcome"`
	Stats      types.ResultStats  `json:"stats"`
	PassRate   float64            `json:"passRate"`
	DurationMs float64            `json:"durationMs"`
	Results    []jsonResultRecord `json:"results"`
}

// Consume collects a result for the final document.
func (s *ResultsJSONSink) Consume(result *types.TestResult, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[runID] = append(s.results[runID], result)
	return nil
}

// Complete writes results.json for the run.
func (s *ResultsJSONSink) Complete(runID string) error {
	return s.CompleteWithTiming(runID, 0)
}

// CompleteWithTiming writes results.json, preferring the wall clock duration
// over the sum of per-spec durations when provided.
func (s *ResultsJSONSink) CompleteWithTiming(runID string, wallClock time.Duration) error {
	s.mu.Lock()
	results := s.results[runID]
	s.mu.Unlock()

	set := &types.ResultSet{}
	records := make([]jsonResultRecord, 0, len(results))
	for _, r := range results {
		set.Append(r)
		records = append(records, jsonResultRecord{
			FullName:           r.FullName,
			Status:             r.Status,
			FailedExpectations: r.FailedExpectations,
			File:               r.File,
			DurationMs:         float64(r.Duration) / float64(time.Millisecond),
		})
	}

	duration := set.Duration()
	if wallClock > 0 {
		duration = wallClock
	}
	stats := set.Stats()

	doc := jsonRunDocument{
		RunID:      runID,
		Outcome:    set.Outcome().String(),
		Stats:      stats,
		PassRate:   stats.PassRate(),
		DurationMs: float64(duration) / float64(time.Millisecond),
		Results:    records,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results document: %w", err)
	}

	path := filepath.Join(s.runDir, ResultsJSONFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file %s: %w", path, err)
	}
	return nil
}
