// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/Girish-SCM/mt5-server/internal/bundle"
	"github.com/Girish-SCM/mt5-server/internal/config"
	"github.com/Girish-SCM/mt5-server/internal/issue"
	"github.com/Girish-SCM/mt5-server/internal/lifecycle"
	"github.com/Girish-SCM/mt5-server/internal/podman"
	"github.com/Girish-SCM/mt5-server/internal/provision"
	"github.com/Girish-SCM/mt5-server/internal/runner"
	"github.com/Girish-SCM/mt5-server/internal/state"
)

// services bundles the collaborators commands operate on.
type services struct {
	run        *runner.Runner
	store      *state.Store
	locator    *podman.Locator
	extractor  *bundle.Extractor
	runtimeDir string
}

// buildServices wires the collaborators for the current process.
func buildServices() (*services, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	runtimeDir, err := config.RuntimeDir()
	if err != nil {
		return nil, err
	}

	run := runner.New()
	extractor, err := bundle.NewExtractor(run, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return nil, err
	}

	return &services{
		run:        run,
		store:      state.NewStore(dataDir),
		locator:    podman.NewLocator(run, runtime.GOOS, runtimeDir),
		extractor:  extractor,
		runtimeDir: runtimeDir,
	}, nil
}

// installer builds the install orchestrator reporting through the given
// progress observer.
func (a *app) installer(svc *services, report provision.ProgressFunc) *provision.Orchestrator {
	clientFor := func(binary string) provision.Client {
		return podman.NewClient(binary, svc.run)
	}
	return provision.NewOrchestrator(
		a.cfg, svc.runtimeDir,
		svc.store, svc.locator, svc.extractor, clientFor,
		provision.WithProgress(report),
	)
}

// resolveClient returns a Podman client for lifecycle commands. The path
// recorded during install is preferred; a fresh lookup covers records from
// older installs and manually moved binaries.
func (a *app) resolveClient(ctx context.Context, svc *services) (*podman.Client, error) {
	rec, err := svc.store.Read()
	if err == nil && rec.RuntimePath != "" {
		if _, statErr := os.Stat(rec.RuntimePath); statErr == nil {
			a.logger.Debug("using recorded runtime", "path", rec.RuntimePath)
			return podman.NewClient(rec.RuntimePath, svc.run), nil
		}
	}

	loc, err := svc.locator.Locate(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("located runtime", "path", loc.Path, "source", loc.Source)
	return podman.NewClient(loc.Path, svc.run), nil
}

// manager builds the container lifecycle manager on top of a resolved client.
func (a *app) manager(client *podman.Client) *lifecycle.Manager {
	return lifecycle.NewManager(client, a.cfg.Descriptor(runtime.GOARCH))
}

// fail renders the error with remediation hints and converts it into a
// non-zero exit without letting the framework print it a second time.
func (a *app) fail(err error) error {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(actionable(err), a.verbose))
	return &ExitError{Code: 1}
}

// actionable augments known failures with remediation suggestions. Errors it
// does not recognize pass through untouched.
func actionable(err error) error {
	var missing *bundle.MissingError
	if errors.As(err, &missing) {
		return issue.NewErrorContext().
			WithOperation("locating bundled archive").
			WithResource(missing.Path).
			WithSuggestion(missing.Remedy).
			Wrap(err).
			BuildError()
	}

	switch {
	case errors.Is(err, podman.ErrNotFound):
		return issue.NewErrorContext().
			WithOperation("locating container runtime").
			WithSuggestion("run 'mt5-server install' to provision the bundled runtime").
			WithSuggestion("or install Podman yourself: "+bundle.InstallCommand(runtime.GOOS)).
			Wrap(err).
			BuildError()
	case errors.Is(err, provision.ErrMachine):
		return issue.NewErrorContext().
			WithOperation("provisioning podman machine").
			WithSuggestion("check that virtualization is enabled on this machine").
			WithSuggestion("remove a half-created machine with 'podman machine rm' and retry").
			Wrap(err).
			BuildError()
	case errors.Is(err, provision.ErrImageLoad):
		return issue.NewErrorContext().
			WithOperation("loading terminal image").
			WithSuggestion("check available disk space; the image needs several gigabytes").
			Wrap(err).
			BuildError()
	case errors.Is(err, lifecycle.ErrNotReady):
		return issue.NewErrorContext().
			WithOperation("starting terminal container").
			WithSuggestion("inspect container output with 'mt5-server logs'").
			WithSuggestion("check that ports 5901, 6080 and 8001 are free or override them in the config file").
			Wrap(err).
			BuildError()
	}
	return err
}
