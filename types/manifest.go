package types

import (
	"fmt"
	"time"
)

// Manifest is the root of the YAML spec manifest
type Manifest struct {
	Suites   []SuiteConfig    `yaml:"suites"`
	Defaults ManifestDefaults `yaml:"defaults,omitempty"`
}

// ManifestDefaults holds run-wide defaults that individual specs may override
type ManifestDefaults struct {
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// SuiteConfig is a named collection of spec files. A suite may inherit the
// specs of other suites; its own entries take precedence on conflicts.
type SuiteConfig struct {
	ID          string       `yaml:"id"`
	Description string       `yaml:"description,omitempty"`
	Inherits    []string     `yaml:"inherits,omitempty"`
	Specs       []SpecConfig `yaml:"specs"`
}

// SpecConfig references one spec file within a suite
type SpecConfig struct {
	File    string         `yaml:"file"`
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// SpecEntry is a resolved unit of work for the engine: one spec file with
// the suite it was selected through and its effective timeout.
type SpecEntry struct {
	File    string
	Suite   string
	Timeout time.Duration
}

// ResolveInherited merges the spec lists of all ancestors named in Inherits
// into this suite, recursively and depth-first. Child entries win: a spec
// file already present in the suite is not re-added from a parent. Circular
// inheritance is an error.
func (s *SuiteConfig) ResolveInherited(suites map[string]SuiteConfig) error {
	processing := make(map[string]bool)
	return s.resolveInherited(suites, processing)
}

func (s *SuiteConfig) resolveInherited(suites map[string]SuiteConfig, processing map[string]bool) error {
	if len(s.Inherits) == 0 {
		return nil
	}

	merged := make([]SpecConfig, 0, len(s.Specs))
	seen := make(map[string]bool)

	// Own specs first so the child keeps precedence
	for _, spec := range s.Specs {
		if !seen[spec.File] {
			merged = append(merged, spec)
			seen[spec.File] = true
		}
	}

	for _, parentID := range s.Inherits {
		if processing[parentID] {
			return fmt.Errorf("circular inheritance detected at suite %q", parentID)
		}

		parent, ok := suites[parentID]
		if !ok {
			return fmt.Errorf("suite %q inherits from unknown suite %q", s.ID, parentID)
		}

		processing[parentID] = true
		if err := parent.resolveInherited(suites, processing); err != nil {
			return fmt.Errorf("resolving inheritance of parent suite %q: %w", parentID, err)
		}

		for _, spec := range parent.Specs {
			if !seen[spec.File] {
				merged = append(merged, spec)
				seen[spec.File] = true
			}
		}
		processing[parentID] = false
	}

	s.Specs = merged
	return nil
}
