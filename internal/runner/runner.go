// SPDX-License-Identifier: MPL-2.0

// Package runner executes external commands with per-call timeouts and
// normalizes failures into a typed error. It is the single choke point
// through which every Podman and tar invocation in this application passes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrCommand is the sentinel error wrapped by CommandError.
var ErrCommand = errors.New("command failed")

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Spec describes a single external command invocation.
	Spec struct {
		// Path is the absolute path or bare name of the binary to run.
		Path string
		// Args are the arguments passed to the binary.
		Args []string
		// Timeout bounds the invocation; zero means no timeout beyond the
		// caller's context.
		Timeout time.Duration
		// Combined merges stderr into the returned stdout. Used for log
		// retrieval where the runtime splits output across both streams.
		Combined bool
	}

	// CommandError is returned when an external command exits nonzero, times
	// out, or cannot be spawned. TimedOut distinguishes a deadline expiry from
	// a clean nonzero exit; callers must not treat the two alike, but neither
	// is retried automatically.
	CommandError struct {
		Path     string
		Args     []string
		ExitCode int
		Stderr   string
		TimedOut bool
		cause    error
	}

	// Option configures a Runner.
	Option func(*Runner)

	// Runner spawns external processes. One OS process per Run call; identical
	// concurrent commands are not deduplicated.
	Runner struct {
		execCommand ExecCommandFunc
	}
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	cmd := e.Path
	if len(e.Args) > 0 {
		cmd += " " + strings.Join(e.Args, " ")
	}
	switch {
	case e.TimedOut:
		return fmt.Sprintf("command %q timed out", cmd)
	case e.cause != nil && e.ExitCode < 0:
		return fmt.Sprintf("command %q failed to start: %v", cmd, e.cause)
	case e.Stderr != "":
		return fmt.Sprintf("command %q exited with code %d: %s", cmd, e.ExitCode, strings.TrimSpace(e.Stderr))
	default:
		return fmt.Sprintf("command %q exited with code %d", cmd, e.ExitCode)
	}
}

// Unwrap exposes both the ErrCommand sentinel and the underlying cause, so
// callers can use errors.Is(err, runner.ErrCommand) as well as
// errors.Is(err, exec.ErrNotFound).
func (e *CommandError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrCommand, e.cause}
	}
	return []error{ErrCommand}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command described by spec and returns its stdout on
// success. Nonzero exit, spawn failure, and timeout all surface as
// *CommandError.
func (r *Runner) Run(ctx context.Context, spec Spec) (string, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := r.execCommand(ctx, spec.Path, spec.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if spec.Combined {
		cmd.Stderr = &stdout
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	cmdErr := &CommandError{
		Path:     spec.Path,
		Args:     spec.Args,
		ExitCode: -1,
		Stderr:   stderr.String(),
	}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		cmdErr.TimedOut = true
		cmdErr.cause = ctx.Err()
		return "", cmdErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	} else {
		cmdErr.cause = err
	}

	return "", cmdErr
}

// RunLines runs the command and splits its stdout into trimmed, non-empty
// lines. Commands like `podman images --format` and `podman ps --format`
// produce one record per line.
func (r *Runner) RunLines(ctx context.Context, spec Spec) ([]string, error) {
	out, err := r.Run(ctx, spec)
	if err != nil {
		return nil, err
	}

	var lines []string
	for line := range strings.SplitSeq(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines, nil
}
