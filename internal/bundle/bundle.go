// SPDX-License-Identifier: MPL-2.0

// Package bundle resolves and unpacks the offline artifacts shipped alongside
// the application binary: a compressed Podman runtime archive and the terminal
// image tar. These exist so a first run succeeds on machines with no network
// access; when an artifact is missing the error carries the manual
// installation command for the user's platform instead of attempting a
// network install.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Girish-SCM/mt5-server/internal/platform"
	"github.com/Girish-SCM/mt5-server/internal/runner"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrBundleMissing is wrapped by MissingError.
	ErrBundleMissing = errors.New("bundled artifact missing")
	// ErrExtraction is wrapped by ExtractError.
	ErrExtraction = errors.New("archive extraction failed")
)

type (
	// MissingError is returned when an expected offline artifact is not
	// present alongside the application. Remedy holds the platform-specific
	// action the user can take instead.
	MissingError struct {
		// Artifact names what was looked for ("runtime archive",
		// "terminal image archive").
		Artifact string
		// Path is where the artifact was expected.
		Path string
		// Remedy is the manual alternative, e.g. "brew install podman".
		Remedy string
	}

	// ExtractError is returned when the unpack process exits nonzero.
	ExtractError struct {
		Archive  string
		ExitCode int
		cause    error
	}

	// ExtractorOption configures an Extractor.
	ExtractorOption func(*Extractor)

	// Extractor finds bundled artifacts next to the executable and unpacks
	// the runtime archive into a user-writable directory.
	Extractor struct {
		run        *runner.Runner
		archiveDir string
		goos       string
		goarch     string
	}
)

// Error implements the error interface.
func (e *MissingError) Error() string {
	return fmt.Sprintf("%s not found at %s", e.Artifact, e.Path)
}

// Unwrap returns ErrBundleMissing for errors.Is compatibility.
func (e *MissingError) Unwrap() error { return ErrBundleMissing }

// Error implements the error interface.
func (e *ExtractError) Error() string {
	return fmt.Sprintf("extracting %s failed with exit code %d", e.Archive, e.ExitCode)
}

// Unwrap exposes both the sentinel and the underlying command error.
func (e *ExtractError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrExtraction, e.cause}
	}
	return []error{ErrExtraction}
}

// WithArchiveDir overrides the directory searched for bundled artifacts.
// The default is the directory containing the running executable.
func WithArchiveDir(dir string) ExtractorOption {
	return func(e *Extractor) {
		e.archiveDir = dir
	}
}

// NewExtractor creates an Extractor for the given OS/architecture pair.
func NewExtractor(run *runner.Runner, goos, goarch string, opts ...ExtractorOption) (*Extractor, error) {
	e := &Extractor{
		run:    run,
		goos:   goos,
		goarch: goarch,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.archiveDir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable path: %w", err)
		}
		e.archiveDir = filepath.Dir(exe)
	}

	return e, nil
}

// RuntimeArchivePath returns the expected path of the bundled Podman archive.
func (e *Extractor) RuntimeArchivePath() string {
	return filepath.Join(e.archiveDir, fmt.Sprintf("podman-%s-%s.tar.gz", e.goos, e.goarch))
}

// ImageArchivePath returns the expected path of the bundled terminal image tar.
func (e *Extractor) ImageArchivePath() string {
	return filepath.Join(e.archiveDir, fmt.Sprintf("mt5-terminal-%s.tar", e.goarch))
}

// FindImageArchive returns the image tar path, or a MissingError telling the
// user to obtain the full installer when the tar was stripped from this copy.
func (e *Extractor) FindImageArchive() (string, error) {
	path := e.ImageArchivePath()
	if _, err := os.Stat(path); err != nil {
		return "", &MissingError{
			Artifact: "terminal image archive",
			Path:     path,
			Remedy:   "download the full installer, which includes the terminal image",
		}
	}
	return path, nil
}

// Extract unpacks the bundled runtime archive into targetDir, creating the
// directory if needed. On POSIX platforms the extracted podman binary is
// marked executable. Returns MissingError when no archive is bundled and
// ExtractError when the unpack process fails.
func (e *Extractor) Extract(ctx context.Context, targetDir string) error {
	archive := e.RuntimeArchivePath()
	if _, err := os.Stat(archive); err != nil {
		return &MissingError{
			Artifact: "runtime archive",
			Path:     archive,
			Remedy:   InstallCommand(e.goos),
		}
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create runtime directory %s: %w", targetDir, err)
	}

	_, err := e.run.Run(ctx, runner.Spec{
		Path:    "tar",
		Args:    []string{"-xzf", archive, "-C", targetDir},
		Timeout: 5 * time.Minute,
	})
	if err != nil {
		var cmdErr *runner.CommandError
		if errors.As(err, &cmdErr) {
			return &ExtractError{Archive: archive, ExitCode: cmdErr.ExitCode, cause: err}
		}
		return fmt.Errorf("extract %s: %w", archive, err)
	}

	if e.goos != platform.Windows {
		bin := filepath.Join(targetDir, "podman")
		if err := os.Chmod(bin, 0o755); err != nil {
			return fmt.Errorf("mark %s executable: %w", bin, err)
		}
	}

	return nil
}

// InstallCommand returns the platform's manual Podman install command, used
// as remediation text when no bundled archive is available.
func InstallCommand(goos string) string {
	switch goos {
	case platform.Darwin:
		return "brew install podman"
	case platform.Windows:
		return "winget install RedHat.Podman"
	default:
		return "sudo apt-get install podman (or your distribution's equivalent)"
	}
}
