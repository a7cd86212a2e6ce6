// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/Girish-SCM/mt5-server/internal/provision"
	"github.com/Girish-SCM/mt5-server/internal/tui"

	"github.com/spf13/cobra"
)

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Provision the container runtime and load the terminal image",
		Long: `Provision everything the terminal container needs: a Podman runtime
(an existing system installation is reused, otherwise the bundled one
is extracted), a podman machine on macOS and Windows, and the bundled
terminal image. Running install again after success is a no-op.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return a.fail(err)
			}

			var result provision.Result
			err = tui.RunInstall(cmd.Context(), a.interactive, func(ctx context.Context, report provision.ProgressFunc) error {
				var installErr error
				result, installErr = a.installer(svc, report).Install(ctx)
				return installErr
			})
			if err != nil {
				return a.fail(err)
			}

			if result.AlreadyInstalled {
				fmt.Println(SuccessStyle.Render("✓") + " Already installed, nothing to do.")
				return nil
			}
			fmt.Println(SuccessStyle.Render("✓") + " Installation complete.")
			fmt.Printf("  Runtime: %s (%s)\n", result.Runtime.Path, result.Runtime.Source)
			fmt.Printf("  %s\n", result.Version)
			fmt.Println("\nStart the terminal with " + EndpointStyle.Render("mt5-server start") + ".")
			return nil
		},
	}
}
