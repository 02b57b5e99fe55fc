package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/spec-harness/types"
)

// specExecutor runs one spec file through the external runner binary and
// streams the protocol events it emits.
type specExecutor struct {
	binary         string
	baseArgs       []string
	defaultTimeout time.Duration
	cmdBuilder     func(ctx context.Context, name string, arg ...string) (*exec.Cmd, func())
	log            log.Logger
}

// fileOutcome summarizes one runner process run
type fileOutcome struct {
	eventCount int // protocol events delivered
	testCount  int // testDone events delivered
	timedOut   bool
	duration   time.Duration
	exitErr    error
	stderrTail string
}

func newSpecExecutor(binary string, baseArgs []string, defaultTimeout time.Duration,
	cmdBuilder func(ctx context.Context, name string, arg ...string) (*exec.Cmd, func()),
	logger log.Logger) (*specExecutor, error) {

	if binary == "" {
		binary = DefaultRunnerBinary
	}
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultFileTimeout
	}
	if cmdBuilder == nil {
		return nil, fmt.Errorf("cmdBuilder cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &specExecutor{
		binary:         binary,
		baseArgs:       baseArgs,
		defaultTimeout: defaultTimeout,
		cmdBuilder:     cmdBuilder,
		log:            logger,
	}, nil
}

// run executes one spec file. Protocol lines are handed to deliver in the
// order the runner emitted them, with the original cleaned line alongside
// the decoded event; non-protocol lines go to chatter. A non-nil error
// means the runner could not be started at all; runner exit problems are
// reported through the outcome instead.
func (e *specExecutor) run(ctx context.Context, entry types.SpecEntry,
	deliver func(wireEvent, string), chatter func(string)) (*fileOutcome, error) {

	timeout := entry.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, e.baseArgs...), entry.File)
	cmd, cleanup := e.cmdBuilder(ctx, e.binary, args...)
	defer cleanup()

	stderrTail := newTailBuffer(defaultStderrTailBytes)
	cmd.Stderr = stderrTail

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open runner stdout: %w", err)
	}

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start runner for %s: %w", entry.File, err)
	}

	outcome := &fileOutcome{}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferBytes)
	for scanner.Scan() {
		clean := cleanLine(scanner.Bytes())
		if clean == "" {
			continue
		}
		if ev, ok := parseWireEvent(clean); ok {
			outcome.eventCount++
			if ev.Event == EventTestDone {
				outcome.testCount++
			}
			deliver(ev, clean)
			continue
		}
		chatter(clean)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		e.log.Debug("Runner stdout scan ended early", "file", entry.File, "error", scanErr)
	}

	waitErr := cmd.Wait()
	outcome.duration = time.Since(startTime)
	outcome.timedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	outcome.stderrTail = string(stderrTail.Bytes())

	if waitErr != nil {
		exitErr := &exec.ExitError{}
		if errors.As(waitErr, &exitErr) {
			// Runners exit non-zero when specs fail; that is not a
			// process problem as long as events were reported
			outcome.exitErr = fmt.Errorf("runner exited with code %d", exitErr.ExitCode())
		} else {
			outcome.exitErr = fmt.Errorf("runner did not complete: %w", waitErr)
		}
	}

	return outcome, nil
}
