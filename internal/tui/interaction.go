// SPDX-License-Identifier: MPL-2.0

// Package tui renders installer progress and command feedback. Interactive
// terminals get an animated bubbletea view; everything else gets plain lines
// on stderr so logs and CI output stay readable.
package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	envNoInteraction = "NO_INTERACTION"
	envCI            = "CI"
	envTerm          = "TERM"
)

// DetectInteractive decides whether animated output is appropriate. The flag
// is an explicit opt-out; CI environments and non-terminal stderr disable
// interaction regardless.
func DetectInteractive(noInteraction bool) bool {
	if noInteraction {
		return false
	}
	if envTruthy(envNoInteraction) || envTruthy(envCI) {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envTerm)), "dumb") {
		return false
	}
	return stderrIsTerminal()
}

// ConfigureColors pins the lipgloss color profile to match the decided
// interaction mode so styled output degrades to plain ASCII when piped.
func ConfigureColors(interactive bool) {
	if interactive {
		lipgloss.SetColorProfile(termenv.ColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func envTruthy(key string) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
