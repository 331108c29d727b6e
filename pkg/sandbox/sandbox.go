// Package sandbox defines the Session contract for SudoDev command execution.
//
// A Session is a scoped, stateful execution context bound to one issue
// instance. Exactly one Session exists per agent run; its lifecycle brackets
// every other operation: Start before any command, Cleanup unconditionally on
// every exit path.
package sandbox

import (
	"context"
	"errors"
	"time"
)

// ErrStart indicates the isolated environment could not be created. Fatal to
// the run.
var ErrStart = errors.New("sandbox start failed")

// ErrNotStarted indicates an operation was attempted before Start succeeded.
var ErrNotStarted = errors.New("sandbox not started")

// TimeoutExitCode is the exit code reported when a command hits its timeout.
// A timeout is a terminal outcome for that command, reported as a failed
// execution rather than as an error.
const TimeoutExitCode = 124

// Session is an isolated command-execution environment with a filesystem,
// rooted at the checked-out target repository.
type Session interface {
	// Start creates the environment. Idempotent on success; returns an error
	// wrapping ErrStart when the environment cannot be created.
	Start(ctx context.Context) error

	// RunCommand executes a shell command with combined output, enforcing the
	// timeout. On timeout it returns (TimeoutExitCode, partial output, nil)
	// rather than hanging or erroring.
	RunCommand(ctx context.Context, command string, timeout time.Duration) (exitCode int, output string, err error)

	// ReadFile returns the content of a file, resolved relative to the
	// repository root. A missing or unreadable file is an error.
	ReadFile(ctx context.Context, path string) (string, error)

	// WriteFile writes content to a file, resolved relative to the
	// repository root.
	WriteFile(ctx context.Context, path string, content string) error

	// Cleanup releases the environment. Safe to call multiple times and must
	// never panic; errors are swallowed so teardown can run on every exit
	// path, including after failures.
	Cleanup()
}
