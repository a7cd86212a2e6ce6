// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/Girish-SCM/mt5-server/internal/provision"
	"github.com/Girish-SCM/mt5-server/internal/tui"

	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Install if needed, then start the terminal container",
		Long: `The one-command entrypoint. On first use it provisions the runtime
and image, then starts the terminal container and prints where to
reach it. On later uses provisioning is skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return a.fail(err)
			}

			err = tui.RunInstall(cmd.Context(), a.interactive, func(ctx context.Context, report provision.ProgressFunc) error {
				_, installErr := a.installer(svc, report).Install(ctx)
				return installErr
			})
			if err != nil {
				return a.fail(err)
			}

			client, err := a.resolveClient(cmd.Context(), svc)
			if err != nil {
				return a.fail(err)
			}
			result, err := a.manager(client).Start(cmd.Context())
			if err != nil {
				return a.fail(err)
			}

			fmt.Println(SuccessStyle.Render("✓") + " Container " + result.Container + " is running.")
			printEndpoints(a.cfg)
			return nil
		},
	}
}
