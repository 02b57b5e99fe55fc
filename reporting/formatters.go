package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/testops/spec-harness/types"
	"github.com/testops/spec-harness/ui"
)

// StatusDisplay represents display information for a spec status
type StatusDisplay struct {
	Text  string // Human-readable status text
	Class string // CSS class or style identifier
}

// getStatusDisplay returns human-readable status text and CSS class
func getStatusDisplay(status types.Status) StatusDisplay {
	switch status {
	case types.StatusPassed:
		return StatusDisplay{Text: "PASS", Class: "passed"}
	case types.StatusPending:
		return StatusDisplay{Text: "PENDING", Class: "pending"}
	case types.StatusFailed:
		return StatusDisplay{Text: "FAIL", Class: "failed"}
	default:
		return StatusDisplay{Text: "UNKNOWN", Class: "unknown"}
	}
}

// statusChar returns a character representing the spec status
func statusChar(status types.Status) string {
	switch status {
	case types.StatusPassed:
		return "✓"
	case types.StatusPending:
		return "⊝"
	case types.StatusFailed:
		return "✗"
	default:
		return "?"
	}
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

// ReportFormatter defines the interface for different report output formats
type ReportFormatter interface {
	Format(data *ReportData) (string, error)
}

// ReportWriter defines the interface for writing reports to various destinations
type ReportWriter interface {
	Write(content string) error
}

// FileWriter writes reports to a file
type FileWriter struct {
	path string
}

// NewFileWriter creates a new file writer
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Write writes the content to the file
func (fw *FileWriter) Write(content string) error {
	return os.WriteFile(fw.path, []byte(content), 0644)
}

// StdoutWriter writes reports to stdout
type StdoutWriter struct{}

// NewStdoutWriter creates a new stdout writer
func NewStdoutWriter() *StdoutWriter {
	return &StdoutWriter{}
}

// Write writes the content to stdout
func (sw *StdoutWriter) Write(content string) error {
	_, err := fmt.Print(content)
	return err
}

// HTMLFormatter formats reports as HTML
type HTMLFormatter struct {
	template *template.Template
}

// NewHTMLFormatter creates a new HTML formatter
func NewHTMLFormatter(templateContent string) (*HTMLFormatter, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": formatDuration,
		"statusClass": func(status types.Status) string {
			return getStatusDisplay(status).Class
		},
		"statusText": func(status types.Status) string {
			return getStatusDisplay(status).Text
		},
	}).Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}

	return &HTMLFormatter{
		template: tmpl,
	}, nil
}

// Format renders the report as HTML
func (f *HTMLFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return buf.String(), nil
}

// TextFormatter formats reports as plain text
type TextFormatter struct {
	includeDetails bool
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(includeDetails bool) *TextFormatter {
	return &TextFormatter{
		includeDetails: includeDetails,
	}
}

// Format renders the report as plain text
func (f *TextFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer

	buf.WriteString("Spec Results Summary\n")
	buf.WriteString(strings.Repeat("=", 50) + "\n\n")

	buf.WriteString(fmt.Sprintf("Run ID: %s\n", data.RunID))
	buf.WriteString(fmt.Sprintf("Duration: %s\n", data.DurationText))
	buf.WriteString(fmt.Sprintf("Total Specs: %d\n", data.Stats.Total))
	buf.WriteString(fmt.Sprintf("Passed: %d\n", data.Stats.Passed))
	buf.WriteString(fmt.Sprintf("Pending: %d\n", data.Stats.Pending))
	buf.WriteString(fmt.Sprintf("Failed: %d\n", data.Stats.Failed))
	buf.WriteString(fmt.Sprintf("Pass Rate: %.1f%%\n", data.Stats.PassRate))
	buf.WriteString(fmt.Sprintf("Outcome: %s\n", strings.ToUpper(data.OutcomeText)))
	buf.WriteString("\n")

	buf.WriteString("Specs by File:\n")
	buf.WriteString(strings.Repeat("-", 30) + "\n")
	for _, file := range data.Files {
		buf.WriteString(fmt.Sprintf("%s %s [%d specs, %d passed, %d failed]\n",
			statusChar(file.Status), file.File, file.Stats.Total, file.Stats.Passed, file.Stats.Failed))
		for i, spec := range file.Specs {
			prefix := ui.BuildTreePrefix(1, i == len(file.Specs)-1, nil)
			buf.WriteString(fmt.Sprintf("%s%s %s (%s)\n",
				prefix, statusChar(spec.Status), spec.FullName, formatDuration(spec.Duration)))
			if f.includeDetails {
				for _, exp := range spec.Expectations {
					buf.WriteString(fmt.Sprintf("        %s\n", exp.Message))
				}
			}
		}
	}

	if len(data.FailedSpecNames) > 0 {
		buf.WriteString("\nFailed Specs:\n")
		buf.WriteString(strings.Repeat("-", 20) + "\n")
		for _, name := range data.FailedSpecNames {
			buf.WriteString(fmt.Sprintf("- %s\n", name))
		}
	}

	return buf.String(), nil
}

// TableFormatter formats reports as ASCII tables
type TableFormatter struct {
	title     string
	showSpecs bool
}

// NewTableFormatter creates a new table formatter. With showSpecs every
// spec gets a row; otherwise only per-file rows are rendered.
func NewTableFormatter(title string, showSpecs bool) *TableFormatter {
	return &TableFormatter{
		title:     title,
		showSpecs: showSpecs,
	}
}

// Format renders the report as an ASCII table
func (f *TableFormatter) Format(data *ReportData) (string, error) {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(f.title)

	t.AppendHeader(table.Row{"TYPE", "NAME", "DURATION", "SPECS", "PASSED", "PENDING", "FAILED", "STATUS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "TYPE", AutoMerge: true},
		{Name: "NAME", WidthMax: 200, WidthMaxEnforcer: text.WrapSoft},
		{Name: "DURATION", Align: text.AlignRight},
		{Name: "SPECS", Align: text.AlignRight},
		{Name: "PASSED", Align: text.AlignRight},
		{Name: "PENDING", Align: text.AlignRight},
		{Name: "FAILED", Align: text.AlignRight},
	})

	for _, file := range data.Files {
		t.AppendRow(table.Row{
			"File",
			file.File,
			formatDuration(file.Duration),
			file.Stats.Total,
			file.Stats.Passed,
			file.Stats.Pending,
			file.Stats.Failed,
			getStatusDisplay(file.Status).Text,
		})
		if f.showSpecs {
			for _, spec := range file.Specs {
				t.AppendRow(table.Row{
					"Spec",
					"  " + spec.FullName,
					formatDuration(spec.Duration),
					"", "", "", "",
					getStatusDisplay(spec.Status).Text,
				})
			}
		}
	}

	switch {
	case data.Stats.Failed > 0:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case data.Stats.Pending > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		data.DurationText,
		data.Stats.Total,
		data.Stats.Passed,
		data.Stats.Pending,
		data.Stats.Failed,
		strings.ToUpper(data.OutcomeText),
	})

	t.Render()
	return buf.String(), nil
}
