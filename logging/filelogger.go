package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/testops/spec-harness/envprep"
	"github.com/testops/spec-harness/reporting"
	"github.com/testops/spec-harness/types"
	"github.com/testops/spec-harness/ui"
)

const (
	// FailuresLogFileName collects the diagnostics of every failed spec.
	FailuresLogFileName = "failures.log"

	// SummaryFileName is the plain text run summary.
	SummaryFileName = "summary.log"

	// ResultsJSONFileName is the machine readable result set.
	ResultsJSONFileName = "results.json"

	// JUnitFileName is the JUnit XML rendering consumed by CI systems.
	JUnitFileName = "results.xml"

	// HTMLReportFileName is the browsable report.
	HTMLReportFileName = "report.html"

	// EventsFileName is the raw runner protocol stream.
	EventsFileName = "events.ndjson"
)

// ResultSink is an interface for different ways of consuming spec results
type ResultSink interface {
	// Consume processes a single spec result
	Consume(result *types.TestResult, runID string) error
	// Complete is called when all results have been consumed
	Complete(runID string) error
}

// timedSink is implemented by sinks that render the wall clock duration of
// the run rather than the sum of per-spec durations.
type timedSink interface {
	CompleteWithTiming(runID string, wallClock time.Duration) error
}

// FileLogger persists the artifacts of a single run under
// <baseDir>/specrun-<runID>/. It fans each result out to its sinks and owns
// the async writers the sinks append through.
type FileLogger struct {
	baseDir string
	runID   string
	runDir  string

	htmlSink *reporting.HTMLSink

	mu           sync.Mutex            // Protects concurrent file operations
	sinks        []ResultSink          // Collection of result consumers
	asyncWriters map[string]*AsyncFile // Map of async file writers
}

// AsyncFile provides non-blocking file writing capabilities
type AsyncFile struct {
	file    *os.File
	queue   chan []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewAsyncFile creates a new AsyncFile for non-blocking writes
func NewAsyncFile(filepath string) (*AsyncFile, error) {
	file, err := os.Create(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", filepath, err)
	}

	af := &AsyncFile{
		file:  file,
		queue: make(chan []byte, 100), // Buffer channel to reduce blocking
	}

	// Start the background writer
	af.wg.Add(1)
	go af.processQueue()

	return af, nil
}

// Write queues data to be written asynchronously
func (af *AsyncFile) Write(data []byte) error {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.stopped {
		return fmt.Errorf("async file is closed")
	}

	// Make a copy of the data to avoid race conditions
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	af.queue <- dataCopy
	return nil
}

// processQueue processes the write queue in the background
func (af *AsyncFile) processQueue() {
	defer af.wg.Done()

	for data := range af.queue {
		_, err := af.file.Write(data)
		if err != nil {
			// Log the error but continue processing
			fmt.Fprintf(os.Stderr, "Error writing to file: %v\n", err)
		}
	}
}

// Close stops the async writer and closes the file
func (af *AsyncFile) Close() error {
	af.mu.Lock()
	if !af.stopped {
		af.stopped = true
		close(af.queue)
	}
	af.mu.Unlock()

	// Wait for all writes to complete
	af.wg.Wait()
	return af.file.Close()
}

// NewFileLogger creates a logger for one run and the directory it writes
// into.
func NewFileLogger(baseDir, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	runDir := envprep.RunDirectory(baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", runDir, err)
	}

	logger := &FileLogger{
		baseDir:      baseDir,
		runID:        runID,
		runDir:       runDir,
		sinks:        make([]ResultSink, 0),
		asyncWriters: make(map[string]*AsyncFile),
	}

	logger.sinks = append(logger.sinks, &FailureDiagnosticsSink{logger: logger})
	logger.sinks = append(logger.sinks, NewResultsJSONSink(runDir))
	logger.sinks = append(logger.sinks, NewJUnitSink(runDir))

	templateContent, err := htmlTemplateContent()
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML template: %w", err)
	}
	htmlSink, err := reporting.NewHTMLSink(runDir, HTMLReportFileName, templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTML sink: %w", err)
	}
	logger.htmlSink = htmlSink
	logger.sinks = append(logger.sinks, htmlSink)

	logger.sinks = append(logger.sinks, reporting.NewTextSummarySink(runDir, SummaryFileName))

	return logger, nil
}

// RunID returns the run this logger writes for.
func (l *FileLogger) RunID() string {
	return l.runID
}

// Directory returns the run directory all artifacts are written into.
func (l *FileLogger) Directory() string {
	return l.runDir
}

// FailuresLogPath returns the path of the failure diagnostics log.
func (l *FileLogger) FailuresLogPath() string {
	return filepath.Join(l.runDir, FailuresLogFileName)
}

// SummaryPath returns the path of the text summary.
func (l *FileLogger) SummaryPath() string {
	return filepath.Join(l.runDir, SummaryFileName)
}

// ResultsJSONPath returns the path of the JSON result set.
func (l *FileLogger) ResultsJSONPath() string {
	return filepath.Join(l.runDir, ResultsJSONFileName)
}

// JUnitPath returns the path of the JUnit XML output.
func (l *FileLogger) JUnitPath() string {
	return filepath.Join(l.runDir, JUnitFileName)
}

// HTMLReportPath returns the path of the HTML report.
func (l *FileLogger) HTMLReportPath() string {
	return filepath.Join(l.runDir, HTMLReportFileName)
}

// EventsPath returns the path of the raw protocol event log.
func (l *FileLogger) EventsPath() string {
	return filepath.Join(l.runDir, EventsFileName)
}

// SetConfigSnapshot attaches the effective config snapshot so the HTML
// report can render it.
func (l *FileLogger) SetConfigSnapshot(snap *types.EffectiveConfigSnapshot) {
	l.htmlSink.SetConfigSnapshot(l.runID, snap)
}

// Consume fans a single result out to every sink.
func (l *FileLogger) Consume(result *types.TestResult) error {
	for _, sink := range l.sinks {
		if err := sink.Consume(result, l.runID); err != nil {
			return fmt.Errorf("sink %T failed to consume result: %w", sink, err)
		}
	}
	return nil
}

// Complete finalizes all sinks and closes the async writers.
func (l *FileLogger) Complete() error {
	return l.CompleteWithTiming(0)
}

// CompleteWithTiming finalizes all sinks, handing the wall clock run
// duration to sinks that render it.
func (l *FileLogger) CompleteWithTiming(wallClock time.Duration) error {
	var firstErr error
	for _, sink := range l.sinks {
		var err error
		if ts, ok := sink.(timedSink); ok && wallClock > 0 {
			err = ts.CompleteWithTiming(l.runID, wallClock)
		} else {
			err = sink.Complete(l.runID)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("sink %T failed to complete: %w", sink, err)
		}
	}
	if err := l.closeAllWriters(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// GetSinkByType returns the sink whose concrete type name matches, for
// callers that need sink specific behavior.
func (l *FileLogger) GetSinkByType(typeName string) (ResultSink, bool) {
	for _, sink := range l.sinks {
		name := fmt.Sprintf("%T", sink)
		name = strings.TrimPrefix(name, "*")
		if idx := strings.LastIndex(name, "."); idx != -1 {
			name = name[idx+1:]
		}
		if name == typeName {
			return sink, true
		}
	}
	return nil, false
}

// getAsyncWriter gets or creates an AsyncFile for the given path
func (l *FileLogger) getAsyncWriter(path string) (*AsyncFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if writer, exists := l.asyncWriters[path]; exists {
		return writer, nil
	}

	writer, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}
	l.asyncWriters[path] = writer
	return writer, nil
}

func (l *FileLogger) closeAllWriters() error {
	l.mu.Lock()
	writers := make([]*AsyncFile, 0, len(l.asyncWriters))
	for _, w := range l.asyncWriters {
		writers = append(writers, w)
	}
	l.asyncWriters = make(map[string]*AsyncFile)
	l.mu.Unlock()

	var firstErr error
	for _, w := range writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// failureBoxWidth is the minimum width of the diagnostics box. Longer spec
// names widen the box rather than truncate.
const failureBoxWidth = 80

// FailureDiagnosticsSink appends a diagnostics block to failures.log for
// every failed spec. Passing and pending specs leave no trace here.
type FailureDiagnosticsSink struct {
	logger *FileLogger
}

func (s *FailureDiagnosticsSink) Consume(result *types.TestResult, runID string) error {
	if !result.Failed() {
		return nil
	}

	writer, err := s.logger.getAsyncWriter(s.logger.FailuresLogPath())
	if err != nil {
		return err
	}

	title := fmt.Sprintf("FAILED: %s", result.FullName)
	width := failureBoxWidth
	if n := utf8.RuneCountInString(title) + 4; n > width {
		width = n
	}

	var b strings.Builder
	b.WriteString(ui.BuildBoxHeader(title, width))
	if result.File != "" {
		b.WriteString(ui.BuildBoxLine(fmt.Sprintf("File: %s", result.File), width))
	}
	b.WriteString(ui.BuildBoxLine(fmt.Sprintf("Duration: %s", formatDuration(result.Duration)), width))
	b.WriteString(ui.BuildBoxFooter(width))
	for _, exp := range result.FailedExpectations {
		b.WriteString(exp.Message + "\n")
		if exp.Stack != "" {
			b.WriteString(exp.Stack + "\n")
		}
	}
	b.WriteString("\n")

	return writer.Write([]byte(b.String()))
}

func (s *FailureDiagnosticsSink) Complete(runID string) error {
	return nil
}

// formatDuration renders sub-second durations in milliseconds.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
