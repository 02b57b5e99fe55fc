package reporting

import (
	"encoding/json"
	"time"

	"github.com/testops/spec-harness/marker"
	"github.com/testops/spec-harness/types"
)

// ReportStats contains aggregated statistics for a run
type ReportStats struct {
	Total    int
	Passed   int
	Pending  int
	Failed   int
	PassRate float64
}

// ReportSpec represents a single spec in the report
type ReportSpec struct {
	FullName     string
	Status       types.Status
	Duration     time.Duration
	Expectations []types.Expectation
}

// ReportFile groups the specs of one spec file
type ReportFile struct {
	File     string
	Status   types.Status
	Duration time.Duration
	Stats    ReportStats
	Specs    []ReportSpec
}

// ReportData contains all the structured data needed for any report format
type ReportData struct {
	// Run information
	RunID        string
	Timestamp    time.Time
	Duration     time.Duration
	DurationText string

	// Overall statistics
	Stats        ReportStats
	Outcome      types.RunOutcome
	OutcomeText  string
	OutcomeClass string
	HasFailures  bool

	// Specs grouped by file, in completion order
	Files []ReportFile

	// Summary lists
	FailedSpecNames []string

	// Effective configuration of the run, when captured
	ConfigJSON string
}

// ReportBuilder constructs ReportData from a flat result list
type ReportBuilder struct {
	now func() time.Time
}

// NewReportBuilder creates a new report builder
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{
		now: time.Now,
	}
}

// Build assembles the report model from results in completion order.
func (b *ReportBuilder) Build(results []*types.TestResult, runID string) *ReportData {
	return b.BuildWithTiming(results, runID, 0)
}

// BuildWithTiming assembles the report model, preferring the wall clock run
// duration over the sum of per-spec durations when provided.
func (b *ReportBuilder) BuildWithTiming(results []*types.TestResult, runID string, wallClock time.Duration) *ReportData {
	set := &types.ResultSet{}
	for _, r := range results {
		set.Append(r)
	}

	outcome := set.Outcome()
	stats := toReportStats(set.Stats())

	duration := set.Duration()
	if wallClock > 0 {
		duration = wallClock
	}

	data := &ReportData{
		RunID:        runID,
		Timestamp:    b.now(),
		Duration:     duration,
		DurationText: formatDuration(duration),
		Stats:        stats,
		Outcome:      outcome,
		OutcomeText:  outcome.String(),
		OutcomeClass: marker.Value(outcome),
		HasFailures:  stats.Failed > 0,
		Files:        groupByFile(results),
	}

	for _, r := range set.Failed() {
		data.FailedSpecNames = append(data.FailedSpecNames, r.FullName)
	}

	return data
}

// SetConfig attaches the effective config snapshot, rendered as JSON.
func (d *ReportData) SetConfig(snap *types.EffectiveConfigSnapshot) {
	if snap == nil {
		return
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	d.ConfigJSON = string(raw)
}

// groupByFile buckets results per spec file, preserving first-seen file
// order and per-file completion order.
func groupByFile(results []*types.TestResult) []ReportFile {
	byFile := make(map[string]int)
	var files []ReportFile

	for _, r := range results {
		file := r.File
		if file == "" {
			file = "unknown"
		}
		idx, ok := byFile[file]
		if !ok {
			idx = len(files)
			byFile[file] = idx
			files = append(files, ReportFile{File: file, Status: types.StatusPassed})
		}

		rf := &files[idx]
		rf.Specs = append(rf.Specs, ReportSpec{
			FullName:     r.FullName,
			Status:       r.Status,
			Duration:     r.Duration,
			Expectations: r.FailedExpectations,
		})
		rf.Duration += r.Duration
		rf.Stats.Total++
		switch r.Status {
		case types.StatusPassed:
			rf.Stats.Passed++
		case types.StatusPending:
			rf.Stats.Pending++
		case types.StatusFailed:
			rf.Stats.Failed++
		}
	}

	for i := range files {
		rf := &files[i]
		rf.Stats.PassRate = passRate(rf.Stats)
		rf.Status = fileStatus(rf.Stats)
	}

	return files
}

// fileStatus derives the display status of a file: any failure dominates,
// then any pending spec, otherwise passed.
func fileStatus(stats ReportStats) types.Status {
	if stats.Failed > 0 {
		return types.StatusFailed
	}
	if stats.Pending > 0 {
		return types.StatusPending
	}
	return types.StatusPassed
}

func toReportStats(stats types.ResultStats) ReportStats {
	return ReportStats{
		Total:    stats.Total,
		Passed:   stats.Passed,
		Pending:  stats.Pending,
		Failed:   stats.Failed,
		PassRate: stats.PassRate(),
	}
}

func passRate(stats ReportStats) float64 {
	if stats.Total == 0 {
		return 0
	}
	return float64(stats.Passed) / float64(stats.Total) * 100
}
