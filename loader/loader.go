// Package loader resolves which spec files participate in a run, either
// from a YAML manifest or by filesystem discovery. Loading happens
// synchronously, before any runner process starts.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/testops/spec-harness/types"
)

// DefaultGlob matches spec files during manifestless discovery
const DefaultGlob = "*.spec.js"

// Loader manages the resolved spec entries for a run
type Loader struct {
	config  Config
	entries []types.SpecEntry
	mu      sync.RWMutex
}

// Config contains loader configuration
type Config struct {
	Log            log.Logger
	SpecDir        string
	ManifestFile   string // discovery mode when empty
	Glob           string
	TargetSuite    string
	DefaultTimeout time.Duration
}

// NewLoader creates a loader and resolves the spec entries immediately
func NewLoader(cfg Config) (*Loader, error) {
	if cfg.SpecDir == "" {
		return nil, fmt.Errorf("spec directory is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Glob == "" {
		cfg.Glob = DefaultGlob
	}

	l := &Loader{
		config: cfg,
	}

	if err := l.loadEntries(); err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}

	cfg.Log.Debug("Loader resolved spec entries", "len(entries)", len(l.entries))

	return l, nil
}

func (l *Loader) loadEntries() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []types.SpecEntry
	var err error
	if l.config.ManifestFile != "" {
		entries, err = l.loadFromManifest()
	} else {
		if l.config.TargetSuite != "" {
			return fmt.Errorf("suite selection requires a manifest")
		}
		entries, err = l.discoverSpecs()
	}
	if err != nil {
		return err
	}

	entries = l.dedupe(entries)
	if len(entries) == 0 {
		return fmt.Errorf("no spec files selected")
	}

	l.entries = entries
	return nil
}

// loadFromManifest resolves entries from the YAML manifest, applying suite
// inheritance and the timeout precedence spec > manifest default > config
// default.
func (l *Loader) loadFromManifest() ([]types.SpecEntry, error) {
	manifest, err := loadManifest(l.config.ManifestFile)
	if err != nil {
		return nil, err
	}

	if err := resolveSuiteInheritance(manifest); err != nil {
		return nil, err
	}

	suites := manifest.Suites
	if l.config.TargetSuite != "" {
		suites = nil
		for _, s := range manifest.Suites {
			if s.ID == l.config.TargetSuite {
				suites = []types.SuiteConfig{s}
				break
			}
		}
		if suites == nil {
			return nil, fmt.Errorf("suite %q not found in manifest", l.config.TargetSuite)
		}
	}

	defaultTimeout := l.config.DefaultTimeout
	if manifest.Defaults.Timeout != nil {
		defaultTimeout = *manifest.Defaults.Timeout
	}

	var entries []types.SpecEntry
	for _, suite := range suites {
		for _, spec := range suite.Specs {
			file := spec.File
			if !filepath.IsAbs(file) {
				file = filepath.Join(l.config.SpecDir, file)
			}
			file = filepath.Clean(file)

			if _, err := os.Stat(file); err != nil {
				return nil, fmt.Errorf("suite %q references missing spec file %q: %w", suite.ID, spec.File, err)
			}

			timeout := defaultTimeout
			if spec.Timeout != nil {
				timeout = *spec.Timeout
			}

			entries = append(entries, types.SpecEntry{
				File:    file,
				Suite:   suite.ID,
				Timeout: timeout,
			})
		}
	}

	return entries, nil
}

// discoverSpecs walks the spec directory for files matching the glob,
// sorted for a deterministic run order.
func (l *Loader) discoverSpecs() ([]types.SpecEntry, error) {
	var files []string
	err := filepath.WalkDir(l.config.SpecDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, matchErr := filepath.Match(l.config.Glob, d.Name())
		if matchErr != nil {
			return fmt.Errorf("invalid glob %q: %w", l.config.Glob, matchErr)
		}
		if ok {
			files = append(files, filepath.Clean(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering specs under %s: %w", l.config.SpecDir, err)
	}

	sort.Strings(files)

	entries := make([]types.SpecEntry, 0, len(files))
	for _, file := range files {
		entries = append(entries, types.SpecEntry{
			File:    file,
			Timeout: l.config.DefaultTimeout,
		})
	}
	return entries, nil
}

// dedupe drops repeated spec files, first entry wins
func (l *Loader) dedupe(entries []types.SpecEntry) []types.SpecEntry {
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if seen[e.File] {
			l.config.Log.Debug("Dropping duplicate spec entry", "file", e.File, "suite", e.Suite)
			continue
		}
		seen[e.File] = true
		out = append(out, e)
	}
	return out
}

// Entries returns the resolved spec entries in run order
func (l *Loader) Entries() []types.SpecEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries
}

// EntriesBySuite returns the entries selected through a specific suite
func (l *Loader) EntriesBySuite(suiteID string) []types.SpecEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var entries []types.SpecEntry
	for _, e := range l.entries {
		if e.Suite == suiteID {
			entries = append(entries, e)
		}
	}
	return entries
}

// GetConfig returns the loader configuration
func (l *Loader) GetConfig() Config {
	return l.config
}

// loadManifest reads and parses the manifest file
func loadManifest(path string) (*types.Manifest, error) {
	log.Debug("Reading spec manifest", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest types.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	return &manifest, nil
}

// resolveSuiteInheritance checks for inheritance cycles and then merges
// inherited specs into every suite.
func resolveSuiteInheritance(manifest *types.Manifest) error {
	if len(manifest.Suites) == 0 {
		return nil
	}

	suiteMap := make(map[string]types.SuiteConfig, len(manifest.Suites))
	for _, suite := range manifest.Suites {
		suiteMap[suite.ID] = suite
	}

	for _, suite := range manifest.Suites {
		if err := checkCircularInheritance(suite.ID, suite.Inherits, suiteMap, make(map[string]bool)); err != nil {
			return err
		}
	}

	for i := range manifest.Suites {
		if err := manifest.Suites[i].ResolveInherited(suiteMap); err != nil {
			return fmt.Errorf("invalid suite inheritance: %w", err)
		}
	}

	return nil
}

// checkCircularInheritance detects cycles in suite inheritance
func checkCircularInheritance(currentID string, inherits []string, suiteMap map[string]types.SuiteConfig, visited map[string]bool) error {
	if visited[currentID] {
		return fmt.Errorf("circular inheritance detected at suite %s", currentID)
	}

	visited[currentID] = true
	defer delete(visited, currentID) // Clean up after checking this branch

	for _, parentID := range inherits {
		parent, exists := suiteMap[parentID]
		if !exists {
			return fmt.Errorf("suite %s inherits from non-existent suite %s", currentID, parentID)
		}

		if err := checkCircularInheritance(parentID, parent.Inherits, suiteMap, visited); err != nil {
			return err
		}
	}

	return nil
}
