package engine

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
)

// wireError mirrors the err object of the runner protocol
type wireError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// wireEvent is one line of the runner's newline-delimited JSON protocol.
// testDone events carry fullName/state/err/durationMs; suiteDone events
// carry root/description.
type wireEvent struct {
	Event       string     `json:"event"`
	FullName    string     `json:"fullName"`
	State       string     `json:"state"`
	Err         *wireError `json:"err,omitempty"`
	DurationMs  float64    `json:"durationMs"`
	Root        bool       `json:"root"`
	Description string     `json:"description"`
}

// cleanLine strips ANSI escapes and surrounding whitespace from one runner
// stdout line. Runners colorize freely; the protocol does not.
func cleanLine(line []byte) string {
	return strings.TrimSpace(stripansi.Strip(string(line)))
}

// parseWireEvent decodes one cleaned stdout line. ok is false for lines
// that are not protocol events: runner chatter, blank lines, JSON of an
// unknown event type.
func parseWireEvent(clean string) (wireEvent, bool) {
	if len(clean) == 0 || clean[0] != '{' {
		return wireEvent{}, false
	}

	var ev wireEvent
	if err := json.Unmarshal([]byte(clean), &ev); err != nil {
		return wireEvent{}, false
	}

	switch ev.Event {
	case EventTestDone, EventSuiteDone:
		return ev, true
	}
	return wireEvent{}, false
}

// testEvent converts a testDone wire event into the typed form
func (w wireEvent) testEvent(file string) TestEvent {
	ev := TestEvent{
		FullName: w.FullName,
		State:    TerminalState(w.State),
		Duration: time.Duration(w.DurationMs * float64(time.Millisecond)),
		File:     file,
	}
	if w.Err != nil {
		ev.Err = &ErrorDetail{
			Message: w.Err.Message,
			Stack:   w.Err.Stack,
		}
	}
	return ev
}

// suiteEvent converts a suiteDone wire event into the typed form. A file's
// own top-level suite is not the run's root, so per-file root flags are
// demoted; only the engine emits the run-level root event.
func (w wireEvent) suiteEvent(file string) SuiteEvent {
	return SuiteEvent{
		Root:        false,
		Description: w.Description,
		File:        file,
	}
}
