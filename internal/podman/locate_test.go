// SPDX-License-Identifier: MPL-2.0

package podman

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/Girish-SCM/mt5-server/internal/platform"
	"github.com/Girish-SCM/mt5-server/internal/runner"
	"github.com/Girish-SCM/mt5-server/internal/testutil"
)

// failAll scripts every candidate to fail its version probe.
func failAll(rec *testutil.ExecRecorder, goos string, extra ...string) {
	for _, p := range WellKnownPaths(goos) {
		rec.NameResponses[p] = testutil.Response{ExitCode: 1}
	}
	for _, p := range extra {
		rec.NameResponses[p] = testutil.Response{ExitCode: 1}
	}
}

func noLookPath(string) (string, error) {
	return "", exec.ErrNotFound
}

func TestLocatePrefersFirstRespondingSystemPath(t *testing.T) {
	rec := testutil.NewExecRecorder()
	run := runner.New(runner.WithExecCommand(rec.CommandFunc(t)))

	l := NewLocator(run, platform.Linux, "/data/podman", WithLookPath(noLookPath))

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Path != "/usr/bin/podman" {
		t.Errorf("expected first well-known path, got %q", loc.Path)
	}
	if loc.Source != SourceSystem {
		t.Errorf("expected system source, got %q", loc.Source)
	}
}

func TestLocateOnlyThirdCandidateResponds(t *testing.T) {
	rec := testutil.NewExecRecorder()
	run := runner.New(runner.WithExecCommand(rec.CommandFunc(t)))

	// First two well-known paths fail; the third responds. The bundled copy
	// and PATH must never be consulted once a system path answers.
	paths := WellKnownPaths(platform.Linux)
	rec.NameResponses[paths[0]] = testutil.Response{ExitCode: 1}
	rec.NameResponses[paths[1]] = testutil.Response{ExitCode: 127}

	l := NewLocator(run, platform.Linux, "/data/podman", WithLookPath(noLookPath))

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Path != paths[2] {
		t.Errorf("expected %q, got %q", paths[2], loc.Path)
	}
	if loc.Source != SourceSystem {
		t.Errorf("expected system source, got %q", loc.Source)
	}
}

func TestLocateSystemBeatsBundled(t *testing.T) {
	// Both a system path and the bundled binary would respond; system wins
	// because well-known paths are probed first.
	rec := testutil.NewExecRecorder()
	run := runner.New(runner.WithExecCommand(rec.CommandFunc(t)))

	l := NewLocator(run, platform.Linux, "/data/podman", WithLookPath(noLookPath))

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Source != SourceSystem {
		t.Errorf("expected system source when both respond, got %q", loc.Source)
	}
}

func TestLocateFallsBackToBundled(t *testing.T) {
	rec := testutil.NewExecRecorder()
	run := runner.New(runner.WithExecCommand(rec.CommandFunc(t)))

	failAll(rec, platform.Linux)

	l := NewLocator(run, platform.Linux, "/data/podman", WithLookPath(noLookPath))

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Path != "/data/podman/podman" {
		t.Errorf("expected bundled binary path, got %q", loc.Path)
	}
	if loc.Source != SourceBundled {
		t.Errorf("expected bundled source, got %q", loc.Source)
	}
}

func TestLocateFallsBackToPATH(t *testing.T) {
	rec := testutil.NewExecRecorder()
	run := runner.New(runner.WithExecCommand(rec.CommandFunc(t)))

	failAll(rec, platform.Linux, "/data/podman/podman")

	l := NewLocator(run, platform.Linux, "/data/podman", WithLookPath(func(string) (string, error) {
		return "/home/user/bin/podman", nil
	}))

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Path != "/home/user/bin/podman" {
		t.Errorf("expected PATH-resolved binary, got %q", loc.Path)
	}
	if loc.Source != SourceSystem {
		t.Errorf("PATH lookup is a system installation, got %q", loc.Source)
	}
}

func TestLocateNotFound(t *testing.T) {
	rec := testutil.NewExecRecorder()
	run := runner.New(runner.WithExecCommand(rec.CommandFunc(t)))

	failAll(rec, platform.Linux, "/data/podman/podman")

	l := NewLocator(run, platform.Linux, "/data/podman", WithLookPath(noLookPath))

	_, err := l.Locate(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocateWindowsExecutableName(t *testing.T) {
	rec := testutil.NewExecRecorder()
	run := runner.New(runner.WithExecCommand(rec.CommandFunc(t)))

	failAll(rec, platform.Windows)

	bundledDir := t.TempDir()
	l := NewLocator(run, platform.Windows, bundledDir, WithLookPath(noLookPath))

	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Path != filepath.Join(bundledDir, "podman.exe") {
		t.Errorf("expected .exe suffix on windows, got %q", loc.Path)
	}
}
