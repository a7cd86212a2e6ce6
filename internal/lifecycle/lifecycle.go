// SPDX-License-Identifier: MPL-2.0

// Package lifecycle supervises the terminal container: start with stale
// cleanup and awaited readiness, stop, status, and bounded log retrieval.
// Starting is asynchronous on the Podman side, so Start polls until the
// container is actually listed as running instead of assuming it came up.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Girish-SCM/mt5-server/internal/config"
	"github.com/Girish-SCM/mt5-server/internal/podman"

	"github.com/cenkalti/backoff/v4"
)

const (
	// defaultReadyTimeout bounds the post-start readiness poll.
	defaultReadyTimeout = 30 * time.Second
	// defaultLogTail is how many log lines are requested by default.
	defaultLogTail = 100
	// logDisplayBound caps returned log output. Older output is dropped
	// from the front so the most recent lines survive.
	logDisplayBound = 8 * 1024
)

// ErrNotReady is returned by Start when the container was launched but never
// showed up as running within the readiness window.
var ErrNotReady = errors.New("container not ready")

// Status is the observed container state.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusStopped
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Outcome distinguishes what a Start or Stop actually did.
type Outcome uint8

const (
	// OutcomeStarted means a fresh container was launched and became ready.
	OutcomeStarted Outcome = iota
	// OutcomeAlreadyRunning means the container was up before the call.
	OutcomeAlreadyRunning
	// OutcomeStopped means a running container was stopped.
	OutcomeStopped
	// OutcomeNotRunning means there was nothing to stop.
	OutcomeNotRunning
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStarted:
		return "started"
	case OutcomeAlreadyRunning:
		return "already-running"
	case OutcomeStopped:
		return "stopped"
	case OutcomeNotRunning:
		return "not-running"
	default:
		return "unknown"
	}
}

type (
	// Client is the slice of the Podman CLI the manager drives.
	Client interface {
		ContainerNames(ctx context.Context, nameFilter string) ([]string, error)
		RemoveContainer(ctx context.Context, name string) error
		RunDetached(ctx context.Context, spec podman.RunSpec) error
		Stop(ctx context.Context, name string) error
		Logs(ctx context.Context, name string, tail int) (string, error)
	}

	// StartResult reports what Start did.
	StartResult struct {
		Outcome   Outcome
		Container string
	}

	// StopResult reports what Stop did.
	StopResult struct {
		Outcome   Outcome
		Container string
	}

	// Manager supervises a single named container described by the
	// configuration descriptor.
	Manager struct {
		client       Client
		desc         config.Descriptor
		readyTimeout time.Duration
	}

	// ManagerOption configures a Manager.
	ManagerOption func(*Manager)
)

// WithReadyTimeout overrides the readiness window. Used in tests.
func WithReadyTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.readyTimeout = d
	}
}

// NewManager creates a Manager for the container the descriptor names.
func NewManager(client Client, desc config.Descriptor, opts ...ManagerOption) *Manager {
	m := &Manager{
		client:       client,
		desc:         desc,
		readyTimeout: defaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status reports whether the managed container is currently running. The
// listing filter is a substring match on the Podman side, so names are
// compared exactly here.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	names, err := m.client.ContainerNames(ctx, m.desc.Name)
	if err != nil {
		return StatusUnknown, fmt.Errorf("query container status: %w", err)
	}
	for _, n := range names {
		if n == m.desc.Name {
			return StatusRunning, nil
		}
	}
	return StatusStopped, nil
}

// Start launches the container unless it is already running. Any stopped
// container holding the name is removed first; removal failures are ignored
// because there is usually nothing to remove. After launch, Start waits until
// the container is listed as running and returns ErrNotReady when it never is.
func (m *Manager) Start(ctx context.Context) (StartResult, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return StartResult{}, err
	}
	if status == StatusRunning {
		return StartResult{Outcome: OutcomeAlreadyRunning, Container: m.desc.Name}, nil
	}

	// A leftover stopped container would make `run --name` fail.
	_ = m.client.RemoveContainer(ctx, m.desc.Name)

	spec := podman.RunSpec{
		Name:  m.desc.Name,
		Image: m.desc.Image,
		Env:   m.desc.Env,
		Ports: m.desc.Ports,
	}
	if err := m.client.RunDetached(ctx, spec); err != nil {
		return StartResult{}, fmt.Errorf("start container %s: %w", m.desc.Name, err)
	}

	if err := m.waitReady(ctx); err != nil {
		return StartResult{}, err
	}
	return StartResult{Outcome: OutcomeStarted, Container: m.desc.Name}, nil
}

// waitReady polls container status with exponential backoff until the
// container is running or the window elapses.
func (m *Manager) waitReady(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = m.readyTimeout

	check := func() error {
		status, err := m.Status(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if status != StatusRunning {
			return fmt.Errorf("%w: %s", ErrNotReady, m.desc.Name)
		}
		return nil
	}

	if err := backoff.Retry(check, backoff.WithContext(policy, ctx)); err != nil {
		return err
	}
	return nil
}

// Stop stops the container. Stopping a container that is not running is a
// no-op reported through the result, not an error.
func (m *Manager) Stop(ctx context.Context) (StopResult, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return StopResult{}, err
	}
	if status != StatusRunning {
		return StopResult{Outcome: OutcomeNotRunning, Container: m.desc.Name}, nil
	}

	if err := m.client.Stop(ctx, m.desc.Name); err != nil {
		return StopResult{}, fmt.Errorf("stop container %s: %w", m.desc.Name, err)
	}
	return StopResult{Outcome: OutcomeStopped, Container: m.desc.Name}, nil
}

// Logs returns recent container output, capped at the display bound. When
// truncated, the oldest output is dropped.
func (m *Manager) Logs(ctx context.Context, tail int) (string, error) {
	if tail <= 0 {
		tail = defaultLogTail
	}
	out, err := m.client.Logs(ctx, m.desc.Name, tail)
	if err != nil {
		return "", err
	}
	if len(out) > logDisplayBound {
		out = out[len(out)-logDisplayBound:]
	}
	return out, nil
}
