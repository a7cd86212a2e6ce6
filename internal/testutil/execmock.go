// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test helpers, most importantly a mock for
// exec.Command so packages that spawn Podman or tar can be tested without
// either being installed.
package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"
)

type (
	// ExecRecorder captures arguments passed to exec.Command for verification.
	// It uses the TestHelperProcess pattern to simulate command execution.
	ExecRecorder struct {
		// Invocations records each call to the mock exec.Command.
		Invocations []Invocation
		// ExitCode is the exit code to return (0 = success).
		ExitCode int
		// Stdout is the output to write to stdout.
		Stdout string
		// Stderr is the output to write to stderr.
		Stderr string
		// Responses maps a subcommand (first argument) to a scripted response,
		// overriding the defaults above when present.
		Responses map[string]Response
		// NameResponses maps a command name (binary path) to a scripted
		// response. Takes precedence over Responses. Used to make individual
		// probe candidates succeed or fail during runtime location tests.
		NameResponses map[string]Response
		// Hang, when true, makes the helper process sleep until killed. Used
		// to exercise timeout handling.
		Hang bool
	}

	// Response scripts the behavior of a single subcommand.
	Response struct {
		Stdout   string
		Stderr   string
		ExitCode int
	}

	// Invocation represents a single invocation of exec.Command.
	Invocation struct {
		// Name is the command name (e.g., "podman", "tar").
		Name string
		// Args are the arguments passed to the command.
		Args []string
	}
)

// NewExecRecorder creates a recorder with default settings (success, no output).
func NewExecRecorder() *ExecRecorder {
	return &ExecRecorder{
		Invocations:   make([]Invocation, 0),
		Responses:     make(map[string]Response),
		NameResponses: make(map[string]Response),
	}
}

// CommandFunc returns a function compatible with runner.ExecCommandFunc.
// The function records invocations and returns a command that re-invokes the
// test binary's TestHelperProcess with the scripted output and exit code.
func (m *ExecRecorder) CommandFunc(t *testing.T) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		m.Invocations = append(m.Invocations, Invocation{
			Name: name,
			Args: args,
		})

		stdout, stderr, exitCode := m.Stdout, m.Stderr, m.ExitCode
		if len(args) > 0 {
			if resp, ok := m.Responses[args[0]]; ok {
				stdout, stderr, exitCode = resp.Stdout, resp.Stderr, resp.ExitCode
			}
		}
		if resp, ok := m.NameResponses[name]; ok {
			stdout, stderr, exitCode = resp.Stdout, resp.Stderr, resp.ExitCode
		}

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", exitCode),
			fmt.Sprintf("GO_HELPER_STDOUT=%s", stdout),
			fmt.Sprintf("GO_HELPER_STDERR=%s", stderr),
		}
		if m.Hang {
			cmd.Env = append(cmd.Env, "GO_HELPER_HANG=1")
		}

		return cmd
	}
}

// LastInvocation returns the most recent invocation, or nil if none.
func (m *ExecRecorder) LastInvocation() *Invocation {
	if len(m.Invocations) == 0 {
		return nil
	}
	return &m.Invocations[len(m.Invocations)-1]
}

// LastArgs returns the arguments from the most recent invocation.
func (m *ExecRecorder) LastArgs() []string {
	if inv := m.LastInvocation(); inv != nil {
		return inv.Args
	}
	return nil
}

// AssertCommandName verifies the last command name matches.
func (m *ExecRecorder) AssertCommandName(t *testing.T, expected string) {
	t.Helper()
	if inv := m.LastInvocation(); inv == nil {
		t.Errorf("expected command %q but no commands were invoked", expected)
	} else if inv.Name != expected {
		t.Errorf("expected command %q, got %q", expected, inv.Name)
	}
}

// AssertArgsContain verifies that the last invocation args contain the expected string.
func (m *ExecRecorder) AssertArgsContain(t *testing.T, expected string) {
	t.Helper()
	args := m.LastArgs()
	argsStr := strings.Join(args, " ")
	if !strings.Contains(argsStr, expected) {
		t.Errorf("expected args to contain %q, got: %v", expected, args)
	}
}

// AssertInvocationCount verifies the number of command invocations.
func (m *ExecRecorder) AssertInvocationCount(t *testing.T, expected int) {
	t.Helper()
	if len(m.Invocations) != expected {
		t.Errorf("expected %d invocations, got %d", expected, len(m.Invocations))
	}
}

// HasArg checks if the last invocation contains a specific argument.
func (m *ExecRecorder) HasArg(arg string) bool {
	return slices.Contains(m.LastArgs(), arg)
}

// HasArgPair checks if the last invocation contains a flag-value pair
// (e.g., "--name", "mt5").
func (m *ExecRecorder) HasArgPair(flag, value string) bool {
	args := m.LastArgs()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

// Reset clears all recorded invocations.
func (m *ExecRecorder) Reset() {
	m.Invocations = m.Invocations[:0]
}
