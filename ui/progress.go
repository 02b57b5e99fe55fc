package ui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// NoOpProgress is a progress indicator that does nothing.
type NoOpProgress struct{}

// NewNoOpProgress creates a progress indicator that does nothing
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (n *NoOpProgress) StartFile(file string)                     {}
func (n *NoOpProgress) CompleteFile(file string, failedSpecs int) {}
func (n *NoOpProgress) Stop()                                     {}

// ConsoleProgress logs periodic progress updates while spec files execute.
type ConsoleProgress struct {
	logger log.Logger
	ticker *time.Ticker
	stopCh chan struct{}
	mu     sync.RWMutex

	totalFiles     int
	completedFiles int
	failedSpecs    int
	startTime      time.Time

	// Track currently running files
	runningFiles map[string]time.Time // file -> start time
}

// NewConsoleProgress creates a progress indicator that shows updates in the console
func NewConsoleProgress(logger log.Logger, updateInterval time.Duration, totalFiles int) *ConsoleProgress {
	if updateInterval == 0 {
		updateInterval = 30 * time.Second // Default to 30 seconds
	}

	indicator := &ConsoleProgress{
		logger:       logger,
		ticker:       time.NewTicker(updateInterval),
		stopCh:       make(chan struct{}),
		totalFiles:   totalFiles,
		startTime:    time.Now(),
		runningFiles: make(map[string]time.Time),
	}

	// Start the progress reporting goroutine
	go indicator.progressReporter()

	return indicator
}

// StartFile tracks when a spec file starts running
func (c *ConsoleProgress) StartFile(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runningFiles[file] = time.Now()
	c.logger.Debug("Spec file started", "file", file, "runningFiles", len(c.runningFiles))
}

// CompleteFile tracks when a spec file finishes
func (c *ConsoleProgress) CompleteFile(file string, failedSpecs int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.runningFiles, file)
	c.completedFiles++
	c.failedSpecs += failedSpecs

	c.logger.Debug("Spec file completed",
		"file", file,
		"failedSpecs", failedSpecs,
		"completed", c.completedFiles,
		"total", c.totalFiles,
		"runningFiles", len(c.runningFiles))
}

// progressReporter runs in a goroutine and periodically reports progress
func (c *ConsoleProgress) progressReporter() {
	for {
		select {
		case <-c.ticker.C:
			c.reportProgress()
		case <-c.stopCh:
			return
		}
	}
}

func (c *ConsoleProgress) reportProgress() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	detailsStr := formatRunningFiles(c.runningFiles, 3)

	var percentComplete float64
	if c.totalFiles > 0 {
		percentComplete = float64(c.completedFiles) * 100.0 / float64(c.totalFiles)
	}

	c.logger.Info("Progress update",
		"completed", c.completedFiles,
		"total", c.totalFiles,
		"percent", fmt.Sprintf("%.1f%%", percentComplete),
		"failedSpecs", c.failedSpecs,
		"numRunning", len(c.runningFiles),
		"longestRunning", detailsStr,
		"elapsed", time.Since(c.startTime).Truncate(time.Second))
}

// Stop stops the progress indicator
func (c *ConsoleProgress) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.stopCh)
}

// formatRunningFiles formats the longest running files into a display string
func formatRunningFiles(runningFiles map[string]time.Time, maxShow int) string {
	if len(runningFiles) == 0 {
		return ""
	}

	type runningFile struct {
		name     string
		duration time.Duration
	}

	var running []runningFile
	now := time.Now()
	for file, startTime := range runningFiles {
		running = append(running, runningFile{
			name:     file,
			duration: now.Sub(startTime),
		})
	}

	// Longest running first
	sort.Slice(running, func(i, j int) bool {
		return running[i].duration > running[j].duration
	})

	var runningStrs []string
	for i, file := range running {
		if i >= maxShow {
			break
		}
		duration := file.duration.Truncate(time.Second)
		runningStrs = append(runningStrs, fmt.Sprintf("%s (%v)", file.name, duration))
	}

	if len(running) > maxShow {
		runningStrs = append(runningStrs, fmt.Sprintf("+%d more", len(running)-maxShow))
	}

	return strings.Join(runningStrs, ", ")
}
