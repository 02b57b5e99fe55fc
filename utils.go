package harness

import (
	"fmt"
	"time"

	"github.com/testops/spec-harness/engine"
	"github.com/testops/spec-harness/types"
)

// formatDuration renders a duration with sub-second precision for summaries
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// outcomeString returns a short marker string for a run outcome
func outcomeString(o types.RunOutcome) string {
	if o.Passed() {
		return "✓ pass"
	}
	return "✗ fail"
}

// statusFromState maps an engine terminal state onto the stored status.
// Unknown states count as failed, matching the reporter's classification.
func statusFromState(state engine.TerminalState) types.Status {
	switch state {
	case engine.StatePassed:
		return types.StatusPassed
	case engine.StatePending:
		return types.StatusPending
	default:
		return types.StatusFailed
	}
}
