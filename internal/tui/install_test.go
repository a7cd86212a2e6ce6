// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Girish-SCM/mt5-server/internal/provision"
)

func TestPlainReporterFormat(t *testing.T) {
	var buf strings.Builder
	report := PlainReporter(&buf)

	report(provision.Progress{Step: provision.StepStart, Message: "starting installation", Percent: 0})
	report(provision.Progress{Step: provision.StepRuntimeReady, Message: "container runtime ready (system)", Percent: 25})
	report(provision.Progress{Step: provision.StepComplete, Message: "installation complete", Percent: 100})

	want := "[  0%] starting installation\n" +
		"[ 25%] container runtime ready (system)\n" +
		"[100%] installation complete\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestRunInstallNonInteractivePassesThroughError(t *testing.T) {
	sentinel := errors.New("load failed")
	err := RunInstall(context.Background(), false, func(_ context.Context, report provision.ProgressFunc) error {
		report(provision.Progress{Step: provision.StepStart, Message: "starting", Percent: 0})
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("RunInstall() error = %v, want %v", err, sentinel)
	}
}

func TestRunInstallNonInteractiveSuccess(t *testing.T) {
	var calls int
	err := RunInstall(context.Background(), false, func(_ context.Context, report provision.ProgressFunc) error {
		calls++
		report(provision.Progress{Step: provision.StepComplete, Message: "done", Percent: 100})
		return nil
	})
	if err != nil {
		t.Fatalf("RunInstall() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("install ran %d times, want 1", calls)
	}
}

func TestDetectInteractiveRespectsFlag(t *testing.T) {
	if DetectInteractive(true) {
		t.Error("DetectInteractive(true) = true, want false")
	}
}

func TestDetectInteractiveRespectsCI(t *testing.T) {
	t.Setenv("CI", "true")
	if DetectInteractive(false) {
		t.Error("DetectInteractive under CI = true, want false")
	}
}

func TestDetectInteractiveDumbTerm(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("NO_INTERACTION", "")
	t.Setenv("TERM", "dumb")
	if DetectInteractive(false) {
		t.Error("DetectInteractive with TERM=dumb = true, want false")
	}
}
