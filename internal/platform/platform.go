// SPDX-License-Identifier: MPL-2.0

// Package platform centralizes cross-platform concerns: GOOS string constants,
// the per-OS application data directory, and the question of whether the
// container runtime on a given OS needs a managed virtual machine.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// NeedsMachine reports whether Podman on the given OS runs its daemon inside a
// managed virtual machine. On macOS and Windows containers are Linux processes,
// so Podman requires a `podman machine`; on Linux it talks to the kernel directly.
func NeedsMachine(goos string) bool {
	return goos == Darwin || goos == Windows
}

// DataDir returns the per-user application data directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_DATA_HOME
// (defaulting to ~/.local/share).
func DataDir(appName string) (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case Windows:
		dataDir = os.Getenv("APPDATA")
		if dataDir == "" {
			dataDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		dataDir = os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dataDir = filepath.Join(home, ".local", "share")
		}
	}

	return filepath.Join(dataDir, appName), nil
}

// ConfigDir returns the per-user configuration directory for the application.
// Windows uses %APPDATA%, macOS uses ~/Library/Application Support, and
// Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
func ConfigDir(appName string) (string, error) {
	var configDir string

	switch runtime.GOOS {
	case Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, appName), nil
}

// ExecutableName appends ".exe" on Windows and returns the name unchanged
// elsewhere.
func ExecutableName(goos, name string) string {
	if goos == Windows {
		return name + ".exe"
	}
	return name
}
