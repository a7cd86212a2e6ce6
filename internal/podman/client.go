// SPDX-License-Identifier: MPL-2.0

// Package podman locates an installed Podman binary and wraps the subset of
// its CLI this application drives: version checks, machine management, image
// listing and loading, and container start/stop/logs. Everything goes through
// the runner package; nothing talks to the Podman socket directly, because
// `podman machine` has no daemon to talk to before it runs.
package podman

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Girish-SCM/mt5-server/internal/runner"
)

// Per-command timeouts. Quick queries get a minute; machine init and image
// load pull or unpack gigabytes on first run and get ten.
const (
	quickTimeout        = 1 * time.Minute
	machineStartTimeout = 2 * time.Minute
	machineInitTimeout  = 10 * time.Minute
	imageLoadTimeout    = 10 * time.Minute
)

type (
	// PortMapping publishes a container port on the host, 1:1.
	PortMapping struct {
		HostPort      int
		ContainerPort int
	}

	// RunSpec describes a detached container launch.
	RunSpec struct {
		// Name is the fixed container name.
		Name string
		// Image is the fully qualified, architecture-suffixed reference.
		Image string
		// Env are environment variables passed with -e.
		Env map[string]string
		// Ports are the published port mappings.
		Ports []PortMapping
	}

	// Client drives a resolved Podman binary through its CLI.
	Client struct {
		binary string
		run    *runner.Runner
	}
)

// String returns the mapping in "host:container" form for the -p flag.
func (p PortMapping) String() string {
	return fmt.Sprintf("%d:%d", p.HostPort, p.ContainerPort)
}

// NewClient creates a Client for the Podman binary at the given path.
func NewClient(binary string, run *runner.Runner) *Client {
	return &Client{binary: binary, run: run}
}

// Binary returns the path of the Podman binary this client drives.
func (c *Client) Binary() string {
	return c.binary
}

// Version returns the trimmed output of `podman --version`.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run.Run(ctx, runner.Spec{
		Path:    c.binary,
		Args:    []string{"--version"},
		Timeout: quickTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("podman version check: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// MachineNames lists the names of existing podman machines.
func (c *Client) MachineNames(ctx context.Context) ([]string, error) {
	names, err := c.run.RunLines(ctx, runner.Spec{
		Path:    c.binary,
		Args:    []string{"machine", "list", "--format", "{{.Name}}"},
		Timeout: quickTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	// Podman suffixes the default-connection machine with "*".
	for i, n := range names {
		names[i] = strings.TrimSuffix(n, "*")
	}
	return names, nil
}

// MachineIsRunning reports whether any podman machine is currently running.
func (c *Client) MachineIsRunning(ctx context.Context) (bool, error) {
	lines, err := c.run.RunLines(ctx, runner.Spec{
		Path:    c.binary,
		Args:    []string{"machine", "list", "--format", "{{.Running}}"},
		Timeout: quickTimeout,
	})
	if err != nil {
		return false, fmt.Errorf("query machine state: %w", err)
	}
	for _, line := range lines {
		if strings.EqualFold(line, "true") {
			return true, nil
		}
	}
	return false, nil
}

// MachineInit creates the default podman machine with the given resources.
// First run downloads a VM image, hence the long timeout.
func (c *Client) MachineInit(ctx context.Context, cpus, memoryMB, diskGB int) error {
	_, err := c.run.Run(ctx, runner.Spec{
		Path: c.binary,
		Args: []string{
			"machine", "init",
			"--cpus", strconv.Itoa(cpus),
			"--memory", strconv.Itoa(memoryMB),
			"--disk-size", strconv.Itoa(diskGB),
		},
		Timeout: machineInitTimeout,
	})
	if err != nil {
		return fmt.Errorf("machine init: %w", err)
	}
	return nil
}

// MachineStart starts the default podman machine.
func (c *Client) MachineStart(ctx context.Context) error {
	_, err := c.run.Run(ctx, runner.Spec{
		Path:    c.binary,
		Args:    []string{"machine", "start"},
		Timeout: machineStartTimeout,
	})
	if err != nil {
		return fmt.Errorf("machine start: %w", err)
	}
	return nil
}

// Images lists installed images as "repository:tag" references.
func (c *Client) Images(ctx context.Context) ([]string, error) {
	refs, err := c.run.RunLines(ctx, runner.Spec{
		Path:    c.binary,
		Args:    []string{"images", "--format", "{{.Repository}}:{{.Tag}}"},
		Timeout: quickTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return refs, nil
}

// LoadImage loads an image from a tar archive.
func (c *Client) LoadImage(ctx context.Context, tarPath string) error {
	_, err := c.run.Run(ctx, runner.Spec{
		Path:    c.binary,
		Args:    []string{"load", "-i", tarPath},
		Timeout: imageLoadTimeout,
	})
	if err != nil {
		return fmt.Errorf("load image %s: %w", tarPath, err)
	}
	return nil
}

// ContainerNames lists names of running containers whose name matches the
// given filter. The filter is a substring match on the Podman side; callers
// must exact-match the returned names themselves.
func (c *Client) ContainerNames(ctx context.Context, nameFilter string) ([]string, error) {
	names, err := c.run.RunLines(ctx, runner.Spec{
		Path:    c.binary,
		Args:    []string{"ps", "--filter", "name=" + nameFilter, "--format", "{{.Names}}"},
		Timeout: quickTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	return names, nil
}

// RemoveContainer force-removes a container by name.
func (c *Client) RemoveContainer(ctx context.Context, name string) error {
	_, err := c.run.Run(ctx, runner.Spec{
		Path:    c.binary,
		Args:    []string{"rm", "-f", name},
		Timeout: quickTimeout,
	})
	if err != nil {
		return fmt.Errorf("remove container %s: %w", name, err)
	}
	return nil
}

// RunDetached launches a container in the background and returns immediately.
// Whether it actually came up is the lifecycle manager's readiness probe to
// decide, not this call's.
func (c *Client) RunDetached(ctx context.Context, spec RunSpec) error {
	_, err := c.run.Run(ctx, runner.Spec{
		Path:    c.binary,
		Args:    runDetachedArgs(spec),
		Timeout: quickTimeout,
	})
	if err != nil {
		return fmt.Errorf("run container %s: %w", spec.Name, err)
	}
	return nil
}

// Stop stops a container by name.
func (c *Client) Stop(ctx context.Context, name string) error {
	_, err := c.run.Run(ctx, runner.Spec{
		Path:    c.binary,
		Args:    []string{"stop", name},
		Timeout: quickTimeout,
	})
	if err != nil {
		return fmt.Errorf("stop container %s: %w", name, err)
	}
	return nil
}

// Logs returns the last tail lines of the container's combined output.
func (c *Client) Logs(ctx context.Context, name string, tail int) (string, error) {
	out, err := c.run.Run(ctx, runner.Spec{
		Path:     c.binary,
		Args:     []string{"logs", "--tail", strconv.Itoa(tail), name},
		Timeout:  quickTimeout,
		Combined: true,
	})
	if err != nil {
		return "", fmt.Errorf("container logs %s: %w", name, err)
	}
	return out, nil
}

// runDetachedArgs constructs arguments for a detached container run.
// Env vars are emitted in sorted key order so the generated command line is
// deterministic.
//
// Generated command: <binary> run -d --name <name> -e K=V... -p h:c... <image>
func runDetachedArgs(spec RunSpec) []string {
	args := []string{"run", "-d", "--name", spec.Name}

	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, spec.Env[k]))
	}

	for _, p := range spec.Ports {
		args = append(args, "-p", p.String())
	}

	args = append(args, spec.Image)
	return args
}
