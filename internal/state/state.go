// SPDX-License-Identifier: MPL-2.0

// Package state persists the installation record that makes provisioning
// idempotent. The record lives in a single JSON file in the per-user data
// directory; absence of the file is equivalent to "nothing installed".
//
// There is no cross-process locking. The application assumes a single
// instance per user session; two racing instances degrade to last-writer-wins
// on individual fields, never to a corrupt file (writes are atomic renames).
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the name of the installation record file.
const FileName = "install-state.json"

type (
	// Record is the durable installation state. Updates are superset-merges:
	// a Write never clears a field that an earlier Write set.
	Record struct {
		// Installed is true once the full provisioning sequence has completed
		// at least once.
		Installed bool `json:"installed"`
		// ImageLoaded is true once the terminal image is confirmed present.
		ImageLoaded bool `json:"imageLoaded"`
		// RuntimeSource records which Podman installation is in use
		// ("system" or "bundled").
		RuntimeSource string `json:"runtimeSource,omitempty"`
		// RuntimePath is the resolved absolute path to the Podman binary,
		// cached to avoid re-probing on every launch.
		RuntimePath string `json:"runtimePath,omitempty"`
		// InstalledAt is when provisioning first completed.
		InstalledAt time.Time `json:"installedAt,omitzero"`
		// UpdatedAt is bumped on every Write.
		UpdatedAt time.Time `json:"updatedAt,omitzero"`
	}

	// StoreOption configures a Store.
	StoreOption func(*Store)

	// Store reads and writes the installation record.
	Store struct {
		path string
		now  func() time.Time
	}
)

// WithClock overrides the time source for testing.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store rooted at dir. The directory is created lazily on
// first Write.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		path: filepath.Join(dir, FileName),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the full path of the record file.
func (s *Store) Path() string {
	return s.path
}

// Read returns the current record, or the zero Record when the file does not
// exist yet.
func (s *Store) Read() (Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read install state: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse install state %s: %w", s.path, err)
	}
	return rec, nil
}

// Write merges the non-zero fields of partial into the stored record, stamps
// UpdatedAt, and replaces the file atomically. Returns the merged record.
//
// Merge is one-directional by design: bools can only be raised, strings only
// replaced by non-empty values. Undoing an installation means deleting the
// file, not writing falses into it.
func (s *Store) Write(partial Record) (Record, error) {
	current, err := s.Read()
	if err != nil {
		return Record{}, err
	}

	merged := merge(current, partial)
	merged.UpdatedAt = s.now()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Record{}, fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("encode install state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return Record{}, fmt.Errorf("write install state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return Record{}, fmt.Errorf("replace install state: %w", err)
	}

	return merged, nil
}

// IsInstalled reports whether provisioning has fully completed. Both flags
// are required: an image-less install is not an install.
func (s *Store) IsInstalled() bool {
	rec, err := s.Read()
	if err != nil {
		return false
	}
	return rec.Installed && rec.ImageLoaded
}

func merge(current, partial Record) Record {
	out := current
	if partial.Installed {
		out.Installed = true
	}
	if partial.ImageLoaded {
		out.ImageLoaded = true
	}
	if partial.RuntimeSource != "" {
		out.RuntimeSource = partial.RuntimeSource
	}
	if partial.RuntimePath != "" {
		out.RuntimePath = partial.RuntimePath
	}
	if !partial.InstalledAt.IsZero() {
		out.InstalledAt = partial.InstalledAt
	}
	return out
}
