package types

import "time"

// EffectiveConfigSnapshot represents the effective runtime configuration grouped by domain.
type EffectiveConfigSnapshot struct {
	Runner    RunnerConfigSnapshot    `json:"runner"`
	Logging   LoggingConfigSnapshot   `json:"logging"`
	Execution ExecutionConfigSnapshot `json:"execution"`
	Paths     PathsConfigSnapshot     `json:"paths"`

	// Metadata
	RunID string `json:"runId,omitempty"`
}

type RunnerConfigSnapshot struct {
	Binary           string        `json:"binary"`
	MinVersion       string        `json:"minVersion,omitempty"`
	DefaultTimeout   time.Duration `json:"defaultTimeout"`
	Timeout          time.Duration `json:"timeout"`
	Serial           bool          `json:"serial"`
	Concurrency      int           `json:"concurrency"`
	ShowProgress     bool          `json:"showProgress"`
	ProgressInterval time.Duration `json:"progressInterval"`
}

type LoggingConfigSnapshot struct {
	RunnerLogLevel     string `json:"runnerLogLevel"`
	OutputRealtimeLogs bool   `json:"outputRealtimeLogs"`
}

type ExecutionConfigSnapshot struct {
	RunInterval  time.Duration `json:"runInterval"`
	RunOnce      bool          `json:"runOnce"`
	TargetSuite  string        `json:"targetSuite"`
	Manifestless bool          `json:"manifestlessMode"`
}

type PathsConfigSnapshot struct {
	SpecDir  string `json:"specDir"`
	Manifest string `json:"manifest"`
	LogDir   string `json:"logDir"`
	WorkDir  string `json:"workDir"`
}
