// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Girish-SCM/mt5-server/internal/config"
	"github.com/Girish-SCM/mt5-server/internal/issue"
	"github.com/Girish-SCM/mt5-server/internal/tui"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// app carries the flags and lazily loaded collaborators shared by all
// commands. One instance is built per Execute call; nothing lives in
// package-level state.
type app struct {
	verbose       bool
	noInteraction bool
	cfgFile       string

	cfg         *config.Config
	logger      *log.Logger
	interactive bool
}

// newRootCmd builds the command tree.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mt5-server",
		Short: "Run a MetaTrader 5 terminal in a container",
		Long: TitleStyle.Render("mt5-server") + SubtitleStyle.Render(" - Run a MetaTrader 5 terminal in a container") + `

mt5-server silently provisions a Podman container runtime, loads the
bundled MetaTrader 5 terminal image, and manages the resulting
container. The terminal is reachable over VNC, in the browser via
noVNC, and through an RPC bridge for trading automation.

` + SubtitleStyle.Render("Quick Start:") + `
  1. mt5-server run           Install (first time) and start the terminal
  2. Open ` + EndpointStyle.Render("http://localhost:6080/vnc.html") + ` in a browser
  3. mt5-server stop          Stop the terminal when done

` + SubtitleStyle.Render("Examples:") + `
  mt5-server run              One-shot install-and-start
  mt5-server install          Provision runtime and image only
  mt5-server status           Show install and container state
  mt5-server logs --tail 50   Show recent container output
  mt5-server config show      Show current configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is the per-user config dir)")
	rootCmd.PersistentFlags().BoolVar(&a.noInteraction, "no-interaction", false, "disable animated progress output")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newInstallCmd(a))
	rootCmd.AddCommand(newStartCmd(a))
	rootCmd.AddCommand(newStopCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newLogsCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// setup loads configuration and prepares logging and color output. Runs once
// before any command body.
func (a *app) setup() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	a.interactive = tui.DetectInteractive(a.noInteraction)
	tui.ConfigureColors(a.interactive)

	a.logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	return nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it.
// This is called by main.main().
func Execute() {
	a := &app{}
	rootCmd := newRootCmd(a)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
