package envprep

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/mod/semver"
)

// CheckRunner verifies that the runner binary exists on PATH and, when a
// minimum version is configured, that `<binary> --version` reports at least
// that version. It returns the version the runner reported.
func CheckRunner(ctx context.Context, binary, minVersion string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("runner binary %q not found in PATH: %w", binary, err)
	}

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to query runner version from %s: %w", path, err)
	}

	version := parseVersionOutput(string(out))
	if version == "" {
		return "", fmt.Errorf("runner %s reported unparseable version output %q", binary, strings.TrimSpace(string(out)))
	}

	if minVersion != "" {
		min := normalizeVersion(minVersion)
		if !semver.IsValid(min) {
			return "", fmt.Errorf("invalid minimum runner version %q", minVersion)
		}
		if semver.Compare(normalizeVersion(version), min) < 0 {
			return "", fmt.Errorf("runner version %s is below required minimum %s", version, minVersion)
		}
	}

	return version, nil
}

// parseVersionOutput extracts a semver-looking token from version output
// such as "spec-runner 4.2.1" or "v4.2.1".
func parseVersionOutput(out string) string {
	for _, field := range strings.Fields(out) {
		if semver.IsValid(normalizeVersion(field)) {
			return field
		}
	}
	return ""
}

func normalizeVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
