// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/Girish-SCM/mt5-server/internal/config"
	"github.com/Girish-SCM/mt5-server/internal/lifecycle"

	"github.com/spf13/cobra"
)

func newStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the terminal container",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
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

			switch result.Outcome {
			case lifecycle.OutcomeAlreadyRunning:
				fmt.Printf("Container %s is already running.\n", result.Container)
			default:
				fmt.Println(SuccessStyle.Render("✓") + " Container " + result.Container + " is running.")
			}
			printEndpoints(a.cfg)
			return nil
		},
	}
}

// printEndpoints shows where the running terminal can be reached.
func printEndpoints(cfg *config.Config) {
	fmt.Println("\nAccess the terminal:")
	fmt.Printf("  Browser:  %s\n", EndpointStyle.Render(fmt.Sprintf("http://localhost:%d/vnc.html", cfg.Ports.Web)))
	fmt.Printf("  VNC:      %s\n", EndpointStyle.Render(fmt.Sprintf("localhost:%d", cfg.Ports.VNC)))
	fmt.Printf("  RPC API:  %s\n", EndpointStyle.Render(fmt.Sprintf("localhost:%d", cfg.Ports.RPC)))
}
