package types

import (
	"time"
)

// Status represents the terminal classification of a single spec
type Status string

const (
	StatusPassed  Status = "passed"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Expectation captures one failed expectation reported for a spec
type Expectation struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// TestResult is one record per executed spec. FailedExpectations is only
// populated when Status is StatusFailed; passed and pending specs carry none.
type TestResult struct {
	FullName           string        `json:"fullName"`
	Status             Status        `json:"status"`
	FailedExpectations []Expectation `json:"failedExpectations,omitempty"`
	Duration           time.Duration `json:"-"`
	File               string        `json:"file,omitempty"`
}

// Failed reports whether this record counts against the run outcome
func (r *TestResult) Failed() bool {
	return r.Status == StatusFailed
}

// FailureSummary returns the first failed expectation message, or "" when
// the spec did not fail
func (r *TestResult) FailureSummary() string {
	if len(r.FailedExpectations) == 0 {
		return ""
	}
	return r.FailedExpectations[0].Message
}

// RunOutcome is the single derived verdict of a run: true iff no record in
// the ResultSet failed
type RunOutcome bool

const (
	RunPassed RunOutcome = true
	RunFailed RunOutcome = false
)

// Passed reports whether the run finished without failures
func (o RunOutcome) Passed() bool {
	return bool(o)
}

func (o RunOutcome) String() string {
	if o.Passed() {
		return "passed"
	}
	return "failed"
}

// ResultSet is the ordered collection of spec records for one run.
// Insertion order is completion order, not declaration order, and records
// are never removed or reordered once appended. The zero value is ready to
// use.
type ResultSet struct {
	records []*TestResult
}

// Append adds one record at the end of the set
func (s *ResultSet) Append(r *TestResult) {
	s.records = append(s.records, r)
}

// Len returns the number of records appended so far
func (s *ResultSet) Len() int {
	return len(s.records)
}

// All returns the records in completion order. The returned slice is a view
// owned by the set; callers must not modify it.
func (s *ResultSet) All() []*TestResult {
	return s.records
}

// Failed returns the failed records in completion order
func (s *ResultSet) Failed() []*TestResult {
	var failed []*TestResult
	for _, r := range s.records {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Outcome derives the run verdict from the full set
func (s *ResultSet) Outcome() RunOutcome {
	for _, r := range s.records {
		if r.Failed() {
			return RunFailed
		}
	}
	return RunPassed
}

// Stats aggregates per-status counts over the set
func (s *ResultSet) Stats() ResultStats {
	var stats ResultStats
	for _, r := range s.records {
		stats.Total++
		switch r.Status {
		case StatusPassed:
			stats.Passed++
		case StatusPending:
			stats.Pending++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// Duration sums the recorded per-spec durations
func (s *ResultSet) Duration() time.Duration {
	var total time.Duration
	for _, r := range s.records {
		total += r.Duration
	}
	return total
}

// ResultStats holds per-status counts for a run
type ResultStats struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
}

// PassRate returns the passed fraction as a percentage. Pending specs count
// against the rate; they did not pass.
func (st ResultStats) PassRate() float64 {
	if st.Total == 0 {
		return 0
	}
	return float64(st.Passed) / float64(st.Total) * 100
}
