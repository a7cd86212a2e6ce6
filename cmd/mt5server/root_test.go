// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/Girish-SCM/mt5-server/internal/lifecycle"
	"github.com/Girish-SCM/mt5-server/internal/podman"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback when built from source", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd(&app{})

	want := []string{"run", "install", "start", "stop", "status", "logs", "config"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q missing from tree", name)
		}
	}
}

func TestActionableSuggestions(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantInText string
	}{
		{
			name:       "runtime not found points at install",
			err:        podman.ErrNotFound,
			wantInText: "mt5-server install",
		},
		{
			name:       "container not ready points at logs",
			err:        lifecycle.ErrNotReady,
			wantInText: "mt5-server logs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatErrorForDisplay(actionable(tt.err), false)
			if !strings.Contains(got, tt.wantInText) {
				t.Errorf("formatted error %q does not mention %q", got, tt.wantInText)
			}
		})
	}
}

func TestActionablePassThrough(t *testing.T) {
	plain := errors.New("something else entirely")
	if got := actionable(plain); !errors.Is(got, plain) {
		t.Errorf("actionable() rewrapped unrelated error: %v", got)
	}
	if got := formatErrorForDisplay(plain, false); got != plain.Error() {
		t.Errorf("formatErrorForDisplay() = %q, want %q", got, plain.Error())
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "(not set)" {
		t.Errorf("maskSecret(empty) = %q", got)
	}
	if got := maskSecret("hunter2"); got != "********" {
		t.Errorf("maskSecret(set) = %q", got)
	}
}
