// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "locate container runtime"},
			want: "failed to locate container runtime",
		},
		{
			name: "operation and resource",
			err: &ActionableError{
				Operation: "load terminal image",
				Resource:  "/opt/mt5/mt5-terminal-arm64.tar",
			},
			want: "failed to load terminal image: /opt/mt5/mt5-terminal-arm64.tar",
		},
		{
			name: "with cause",
			err: &ActionableError{
				Operation: "start container",
				Cause:     errors.New("exit status 125"),
			},
			want: "failed to start container: exit status 125",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorContextBuilder(t *testing.T) {
	cause := errors.New("no such file")
	err := NewErrorContext().
		WithOperation("extract bundled runtime").
		WithResource("podman-darwin-arm64.tar.gz").
		WithSuggestion("Install Podman manually: brew install podman").
		Wrap(cause).
		Build()

	if err == nil {
		t.Fatal("Build returned nil with operation set")
	}
	if err.Operation != "extract bundled runtime" {
		t.Errorf("unexpected operation %q", err.Operation)
	}
	if !err.HasSuggestions() {
		t.Error("expected suggestions to be present")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestErrorContextRequiresOperation(t *testing.T) {
	if err := NewErrorContext().WithSuggestion("anything").BuildError(); err != nil {
		t.Errorf("expected nil error without operation, got %v", err)
	}
}

func TestFormatIncludesSuggestions(t *testing.T) {
	err := NewErrorContext().
		WithOperation("locate container runtime").
		WithSuggestion("Install Podman: sudo apt-get install podman").
		WithSuggestion("Or re-run the full installer").
		BuildError()

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatal("expected *ActionableError")
	}

	out := ae.Format(false)
	if !strings.Contains(out, "• Install Podman: sudo apt-get install podman") {
		t.Errorf("formatted output missing first suggestion:\n%s", out)
	}
	if !strings.Contains(out, "• Or re-run the full installer") {
		t.Errorf("formatted output missing second suggestion:\n%s", out)
	}
}

func TestFormatVerboseShowsErrorChain(t *testing.T) {
	inner := errors.New("connection refused")
	mid := WrapWithOperation(inner, "probe machine")

	ae := NewErrorContext().
		WithOperation("initialize virtual machine").
		Wrap(mid).
		Build()

	out := ae.Format(true)
	if !strings.Contains(out, "Error chain:") {
		t.Errorf("verbose output missing error chain:\n%s", out)
	}
	if !strings.Contains(out, "connection refused") {
		t.Errorf("verbose output missing innermost cause:\n%s", out)
	}
}

func TestWrapWithOperationNil(t *testing.T) {
	if got := WrapWithOperation(nil, "anything"); got != nil {
		t.Errorf("expected nil for nil cause, got %v", got)
	}
}
