// SPDX-License-Identifier: MPL-2.0

package podman

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/Girish-SCM/mt5-server/internal/platform"
	"github.com/Girish-SCM/mt5-server/internal/runner"
)

// Source identifies which kind of Podman installation is in use.
type Source string

const (
	// SourceSystem is a package-manager or PATH installation owned by the
	// user. Preferred, since it receives updates.
	SourceSystem Source = "system"
	// SourceBundled is the copy extracted from the archive shipped alongside
	// the application. Fallback only.
	SourceBundled Source = "bundled"
)

// ErrNotFound is returned by Locate when no candidate responds.
var ErrNotFound = errors.New("podman not found")

// probeTimeout bounds a single `<candidate> --version` check. A responsive
// binary answers in well under a second; anything slower is treated as absent.
const probeTimeout = 10 * time.Second

// Location is the result of a successful probe.
type Location struct {
	Path   string
	Source Source
}

// Locator probes well-known filesystem locations and PATH for an installed
// Podman binary. A candidate counts as present when its version command exits
// zero; no further compatibility checking is done.
type Locator struct {
	run        *runner.Runner
	goos       string
	bundledDir string
	lookPath   func(string) (string, error)
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithLookPath overrides the PATH lookup function for testing.
func WithLookPath(fn func(string) (string, error)) LocatorOption {
	return func(l *Locator) {
		l.lookPath = fn
	}
}

// NewLocator creates a Locator. bundledDir is where a previously extracted
// bundled runtime would live; it may be empty to skip that candidate.
func NewLocator(run *runner.Runner, goos, bundledDir string, opts ...LocatorOption) *Locator {
	l := &Locator{
		run:        run,
		goos:       goos,
		bundledDir: bundledDir,
		lookPath:   exec.LookPath,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WellKnownPaths returns the ordered absolute paths probed before falling back
// to a bare PATH lookup. Package-manager locations come first so a
// system-managed installation always beats anything else.
func WellKnownPaths(goos string) []string {
	switch goos {
	case platform.Darwin:
		return []string{
			"/opt/homebrew/bin/podman",
			"/usr/local/bin/podman",
			"/opt/podman/bin/podman",
		}
	case platform.Linux:
		return []string{
			"/usr/bin/podman",
			"/usr/local/bin/podman",
			"/var/lib/flatpak/exports/bin/podman",
		}
	case platform.Windows:
		return []string{
			`C:\Program Files\RedHat\Podman\podman.exe`,
		}
	default:
		return nil
	}
}

// Locate probes, in order: well-known system paths, a previously extracted
// bundled binary, and finally a bare `podman` resolved through PATH. The first
// responding candidate wins. Returns ErrNotFound when nothing responds.
func (l *Locator) Locate(ctx context.Context) (Location, error) {
	for _, candidate := range WellKnownPaths(l.goos) {
		if l.responds(ctx, candidate) {
			return Location{Path: candidate, Source: SourceSystem}, nil
		}
	}

	if l.bundledDir != "" {
		bundled := filepath.Join(l.bundledDir, platform.ExecutableName(l.goos, "podman"))
		if l.responds(ctx, bundled) {
			return Location{Path: bundled, Source: SourceBundled}, nil
		}
	}

	if path, err := l.lookPath("podman"); err == nil {
		if l.responds(ctx, path) {
			return Location{Path: path, Source: SourceSystem}, nil
		}
	}

	return Location{}, ErrNotFound
}

// responds reports whether the candidate binary answers its version command
// with a zero exit within the probe timeout.
func (l *Locator) responds(ctx context.Context, path string) bool {
	_, err := l.run.Run(ctx, runner.Spec{
		Path:    path,
		Args:    []string{"--version"},
		Timeout: probeTimeout,
	})
	return err == nil
}
