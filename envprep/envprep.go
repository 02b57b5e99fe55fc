package envprep

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/testops/spec-harness/types"
)

const (
	// RunDirectoryPrefix is prepended to the run ID to form the per-run
	// directory name under the log directory.
	RunDirectoryPrefix = "specrun-"

	// SnapshotFileName is the effective config snapshot persisted in each
	// run directory.
	SnapshotFileName = "config.json"

	// Environment variables exported to every runner subprocess.
	EnvRunID          = "SPEC_HARNESS_RUN_ID"
	EnvRunDir         = "SPEC_HARNESS_RUN_DIR"
	EnvFixtureURL     = "SPEC_HARNESS_FIXTURE_URL"
	EnvRunnerLogLevel = "SPEC_HARNESS_RUNNER_LOG_LEVEL"
)

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.New().String()
}

// RunDirectory returns the directory that holds all artifacts for a run.
func RunDirectory(logDir, runID string) string {
	return filepath.Join(logDir, RunDirectoryPrefix+runID)
}

// Preparer assembles the per-run environment before any runner process
// starts. It owns the run directory layout and the config snapshot; log
// sinks and the outcome marker write into the directory it creates.
type Preparer struct {
	logDir string
	log    log.Logger
}

// NewPreparer creates a Preparer rooted at the given log directory.
func NewPreparer(logDir string, logger log.Logger) (*Preparer, error) {
	if logDir == "" {
		return nil, fmt.Errorf("log directory is required")
	}
	if logger == nil {
		logger = log.New()
		logger.Error("No logger provided, using default")
	}
	return &Preparer{
		logDir: logDir,
		log:    logger,
	}, nil
}

// Environment describes a prepared run directory.
type Environment struct {
	RunID  string
	RunDir string
}

// Prepare creates the run directory and persists the effective config
// snapshot into it. The snapshot may be nil when there is nothing to record.
func (p *Preparer) Prepare(runID string, snap *types.EffectiveConfigSnapshot) (*Environment, error) {
	if runID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	runDir := RunDirectory(p.logDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", runDir, err)
	}

	if snap != nil {
		if err := writeSnapshot(runDir, snap); err != nil {
			return nil, err
		}
	}

	p.log.Debug("Prepared run directory", "runID", runID, "dir", runDir)
	return &Environment{
		RunID:  runID,
		RunDir: runDir,
	}, nil
}

// RunnerEnv returns the extra environment variables handed to each runner
// subprocess. The fixture URL entry is omitted when no fixture server runs.
func (e *Environment) RunnerEnv(fixtureURL string) []string {
	env := []string{
		fmt.Sprintf("%s=%s", EnvRunID, e.RunID),
		fmt.Sprintf("%s=%s", EnvRunDir, e.RunDir),
	}
	if fixtureURL != "" {
		env = append(env, fmt.Sprintf("%s=%s", EnvFixtureURL, fixtureURL))
	}
	return env
}

func writeSnapshot(runDir string, snap *types.EffectiveConfigSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config snapshot: %w", err)
	}
	path := filepath.Join(runDir, SnapshotFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads the config snapshot persisted in a run directory.
func ReadSnapshot(runDir string) (*types.EffectiveConfigSnapshot, error) {
	path := filepath.Join(runDir, SnapshotFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config snapshot %s: %w", path, err)
	}
	var snap types.EffectiveConfigSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse config snapshot %s: %w", path, err)
	}
	return &snap, nil
}
