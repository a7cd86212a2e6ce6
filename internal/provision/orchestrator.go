// SPDX-License-Identifier: MPL-2.0

// Package provision implements the one-shot silent install sequence: resolve
// a Podman runtime (system install or bundled archive), provision the podman
// machine on platforms that need one, load the bundled terminal image, verify
// the result, and persist the installed marker. Install is idempotent; once
// the marker says installed it returns without spawning a single process.
package provision

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/Girish-SCM/mt5-server/internal/bundle"
	"github.com/Girish-SCM/mt5-server/internal/config"
	"github.com/Girish-SCM/mt5-server/internal/platform"
	"github.com/Girish-SCM/mt5-server/internal/podman"
	"github.com/Girish-SCM/mt5-server/internal/state"
)

// Sentinel errors identifying which stage of the install failed. Wrapped by
// StepError, matched with errors.Is.
var (
	ErrRuntime      = errors.New("runtime provisioning failed")
	ErrMachine      = errors.New("machine provisioning failed")
	ErrImageLoad    = errors.New("image load failed")
	ErrVerification = errors.New("install verification failed")
)

type (
	// Store persists install progress across runs.
	Store interface {
		IsInstalled() bool
		Write(partial state.Record) (state.Record, error)
	}

	// Locator resolves a working Podman binary.
	Locator interface {
		Locate(ctx context.Context) (podman.Location, error)
	}

	// Extractor provides the bundled runtime and image archives.
	Extractor interface {
		Extract(ctx context.Context, targetDir string) error
		FindImageArchive() (string, error)
	}

	// Client is the slice of the Podman CLI the installer drives.
	Client interface {
		Version(ctx context.Context) (string, error)
		MachineNames(ctx context.Context) ([]string, error)
		MachineIsRunning(ctx context.Context) (bool, error)
		MachineInit(ctx context.Context, cpus, memoryMB, diskGB int) error
		MachineStart(ctx context.Context) error
		Images(ctx context.Context) ([]string, error)
		LoadImage(ctx context.Context, tarPath string) error
	}

	// ClientFunc builds a Client for a resolved Podman binary.
	ClientFunc func(binary string) Client

	// StepError reports which install step failed and why.
	StepError struct {
		// Step is the step that was in progress when the failure occurred.
		Step  Step
		kind  error
		cause error
	}

	// Result is the outcome of a successful Install.
	Result struct {
		// AlreadyInstalled is true when the persisted marker short-circuited
		// the sequence.
		AlreadyInstalled bool
		// Runtime is the resolved Podman location. Zero when
		// AlreadyInstalled.
		Runtime podman.Location
		// Version is the reported Podman version string. Empty when
		// AlreadyInstalled.
		Version string
	}

	// Orchestrator runs the install sequence. All collaborators are injected;
	// the zero value is not usable, construct with NewOrchestrator.
	Orchestrator struct {
		cfg        *config.Config
		runtimeDir string
		store      Store
		locator    Locator
		extractor  Extractor
		clientFor  ClientFunc
		progress   ProgressFunc
		goos       string
		goarch     string
		now        func() time.Time
	}

	// OrchestratorOption configures an Orchestrator.
	OrchestratorOption func(*Orchestrator)
)

func (e *StepError) Error() string {
	return fmt.Sprintf("install step %s: %v", e.Step, e.cause)
}

// Unwrap exposes both the stage sentinel and the underlying cause.
func (e *StepError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// WithProgress registers a progress observer.
func WithProgress(fn ProgressFunc) OrchestratorOption {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithPlatform overrides the detected OS and architecture. Used in tests.
func WithPlatform(goos, goarch string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.goos = goos
		o.goarch = goarch
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an install orchestrator. runtimeDir is where the
// bundled runtime gets extracted if no system Podman is found.
func NewOrchestrator(cfg *config.Config, runtimeDir string, store Store, locator Locator, extractor Extractor, clientFor ClientFunc, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		runtimeDir: runtimeDir,
		store:      store,
		locator:    locator,
		extractor:  extractor,
		clientFor:  clientFor,
		progress:   func(Progress) {},
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Install runs the sequence to completion or first failure. A failure leaves
// the persisted record at whatever steps already succeeded; the next Install
// restarts from the beginning and skips work that is still done.
func (o *Orchestrator) Install(ctx context.Context) (Result, error) {
	if o.store.IsInstalled() {
		o.emit(StepComplete, "already installed", checkpoint(StepComplete))
		return Result{AlreadyInstalled: true}, nil
	}

	o.emit(StepStart, "starting installation", checkpoint(StepStart))

	loc, err := o.ensureRuntime(ctx)
	if err != nil {
		return Result{}, o.fail(StepRuntimeReady, ErrRuntime, err)
	}
	o.emit(StepRuntimeReady, fmt.Sprintf("container runtime ready (%s)", loc.Source), checkpoint(StepRuntimeReady))

	client := o.clientFor(loc.Path)

	if platform.NeedsMachine(o.goos) {
		if err := o.ensureMachine(ctx, client); err != nil {
			return Result{}, o.fail(StepMachineReady, ErrMachine, err)
		}
		o.emit(StepMachineReady, "podman machine running", checkpoint(StepMachineReady))
	} else {
		o.emit(StepMachineReady, "no machine required on this platform", checkpoint(StepMachineReady))
	}

	if err := o.ensureImage(ctx, client); err != nil {
		return Result{}, o.fail(StepImageReady, ErrImageLoad, err)
	}
	o.emit(StepImageReady, "terminal image loaded", checkpoint(StepImageReady))

	version, err := o.verify(ctx, client)
	if err != nil {
		return Result{}, o.fail(StepVerified, ErrVerification, err)
	}
	o.emit(StepVerified, fmt.Sprintf("verified %s", version), checkpoint(StepVerified))

	if _, err := o.store.Write(state.Record{
		Installed:   true,
		ImageLoaded: true,
		InstalledAt: o.now(),
	}); err != nil {
		return Result{}, o.fail(StepComplete, ErrVerification, fmt.Errorf("persist install record: %w", err))
	}
	o.emit(StepComplete, "installation complete", checkpoint(StepComplete))

	return Result{Runtime: loc, Version: version}, nil
}

// ensureRuntime resolves a Podman binary, extracting the bundled archive when
// no system installation responds.
func (o *Orchestrator) ensureRuntime(ctx context.Context) (podman.Location, error) {
	loc, err := o.locator.Locate(ctx)
	switch {
	case err == nil:
	case errors.Is(err, podman.ErrNotFound):
		if extractErr := o.extractor.Extract(ctx, o.runtimeDir); extractErr != nil {
			var missing *bundle.MissingError
			if errors.As(extractErr, &missing) {
				return podman.Location{}, extractErr
			}
			return podman.Location{}, fmt.Errorf("extract bundled runtime: %w", extractErr)
		}
		loc, err = o.locator.Locate(ctx)
		if err != nil {
			return podman.Location{}, fmt.Errorf("bundled runtime did not respond after extraction: %w", err)
		}
	default:
		return podman.Location{}, err
	}

	if _, err := o.store.Write(state.Record{
		RuntimeSource: string(loc.Source),
		RuntimePath:   loc.Path,
	}); err != nil {
		return podman.Location{}, fmt.Errorf("persist runtime location: %w", err)
	}
	return loc, nil
}

// ensureMachine makes sure a podman machine exists and is running.
func (o *Orchestrator) ensureMachine(ctx context.Context, client Client) error {
	names, err := client.MachineNames(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		m := o.cfg.Machine
		if err := client.MachineInit(ctx, m.CPUs, m.MemoryMB, m.DiskGB); err != nil {
			return err
		}
	}

	running, err := client.MachineIsRunning(ctx)
	if err != nil {
		return err
	}
	if !running {
		if err := client.MachineStart(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ensureImage loads the bundled terminal image unless the registry already
// holds the exact reference.
func (o *Orchestrator) ensureImage(ctx context.Context, client Client) error {
	ref := o.cfg.ImageRef(o.goarch)

	images, err := client.Images(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(images, ref) {
		tarPath, err := o.extractor.FindImageArchive()
		if err != nil {
			return err
		}
		if err := client.LoadImage(ctx, tarPath); err != nil {
			return err
		}
	}

	if _, err := o.store.Write(state.Record{ImageLoaded: true}); err != nil {
		return fmt.Errorf("persist image record: %w", err)
	}
	return nil
}

// verify confirms the runtime answers and the loaded image is visible.
func (o *Orchestrator) verify(ctx context.Context, client Client) (string, error) {
	version, err := client.Version(ctx)
	if err != nil {
		return "", err
	}

	images, err := client.Images(ctx)
	if err != nil {
		return "", err
	}
	fragment := o.cfg.ImageNameFragment()
	found := slices.ContainsFunc(images, func(ref string) bool {
		return strings.Contains(ref, fragment)
	})
	if !found {
		return "", fmt.Errorf("image %q not present after load", fragment)
	}
	return version, nil
}

func (o *Orchestrator) emit(step Step, message string, percent int) {
	o.progress(Progress{Step: step, Message: message, Percent: percent})
}

// fail emits a Failed event carrying the percentage of the last completed
// step and returns the typed step error.
func (o *Orchestrator) fail(step Step, kind, cause error) error {
	err := &StepError{Step: step, kind: kind, cause: cause}
	last := 0
	if step > StepStart {
		last = checkpoint(step - 1)
	}
	o.emit(StepFailed, err.Error(), last)
	return err
}
