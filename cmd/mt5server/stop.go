// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/Girish-SCM/mt5-server/internal/lifecycle"

	"github.com/spf13/cobra"
)

func newStopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the terminal container",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return a.fail(err)
			}
			client, err := a.resolveClient(cmd.Context(), svc)
			if err != nil {
				return a.fail(err)
			}

			result, err := a.manager(client).Stop(cmd.Context())
			if err != nil {
				return a.fail(err)
			}

			switch result.Outcome {
			case lifecycle.OutcomeNotRunning:
				fmt.Printf("Container %s is not running.\n", result.Container)
			default:
				fmt.Println(SuccessStyle.Render("✓") + " Container " + result.Container + " stopped.")
			}
			return nil
		},
	}
}
