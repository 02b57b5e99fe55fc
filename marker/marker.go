// Package marker persists the run verdict as a single well-known file in
// the run directory, the polling point for automation that used to watch
// page state.
package marker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/spec-harness/types"
)

const (
	// FileName is the marker file written into the run directory
	FileName = "outcome"

	// AllPassing marks a run with no failed specs
	AllPassing = "all-passing"

	// HasFailures marks a run with at least one failed spec
	HasFailures = "has-failures"
)

// Value maps a run verdict to its marker string
func Value(o types.RunOutcome) string {
	if o.Passed() {
		return AllPassing
	}
	return HasFailures
}

// FileMarker writes the verdict marker for one run directory. The two
// marker values are mutually exclusive: the first application wins,
// re-applying the same value is a no-op, and a conflicting value is
// rejected.
type FileMarker struct {
	dir string
	log log.Logger

	mu      sync.Mutex
	applied string
}

// NewFileMarker creates a marker bound to a run directory
func NewFileMarker(dir string, logger log.Logger) *FileMarker {
	return &FileMarker{
		dir: dir,
		log: logger,
	}
}

// Apply records the verdict marker for the run
func (m *FileMarker) Apply(o types.RunOutcome) error {
	value := Value(o)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.applied != "" {
		if m.applied == value {
			return nil
		}
		return fmt.Errorf("outcome marker already applied as %q, refusing %q", m.applied, value)
	}

	if err := os.WriteFile(m.Path(), []byte(value+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write outcome marker: %w", err)
	}
	m.applied = value

	m.log.Debug("Outcome marker applied", "value", value, "path", m.Path())
	return nil
}

// Applied returns the marker value recorded so far, empty when none
func (m *FileMarker) Applied() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied
}

// Path returns the marker file location
func (m *FileMarker) Path() string {
	return filepath.Join(m.dir, FileName)
}

// Read returns the marker recorded in a run directory
func Read(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return "", fmt.Errorf("failed to read outcome marker: %w", err)
	}

	value := strings.TrimSpace(string(data))
	switch value {
	case AllPassing, HasFailures:
		return value, nil
	}
	return "", fmt.Errorf("unrecognized outcome marker %q", value)
}
