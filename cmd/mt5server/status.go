// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/Girish-SCM/mt5-server/internal/lifecycle"
	"github.com/Girish-SCM/mt5-server/internal/podman"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show installation and container state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return a.fail(err)
			}

			rec, err := svc.store.Read()
			if err != nil {
				return a.fail(err)
			}

			fmt.Println(TitleStyle.Render("Installation"))
			if svc.store.IsInstalled() {
				fmt.Println("  State:    " + SuccessStyle.Render("installed"))
				fmt.Printf("  Runtime:  %s (%s)\n", rec.RuntimePath, rec.RuntimeSource)
				if !rec.InstalledAt.IsZero() {
					fmt.Printf("  Since:    %s\n", rec.InstalledAt.Format("2006-01-02 15:04"))
				}
			} else {
				fmt.Println("  State:    " + WarningStyle.Render("not installed"))
				fmt.Println("  Run " + EndpointStyle.Render("mt5-server install") + " to provision.")
				return nil
			}

			fmt.Println(TitleStyle.Render("Container"))
			client, err := a.resolveClient(cmd.Context(), svc)
			if err != nil {
				if errors.Is(err, podman.ErrNotFound) {
					fmt.Println("  State:    " + ErrorStyle.Render("runtime missing"))
					return nil
				}
				return a.fail(err)
			}

			status, err := a.manager(client).Status(cmd.Context())
			if err != nil {
				return a.fail(err)
			}
			switch status {
			case lifecycle.StatusRunning:
				fmt.Println("  State:    " + SuccessStyle.Render(status.String()))
				printEndpoints(a.cfg)
			default:
				fmt.Println("  State:    " + WarningStyle.Render(status.String()))
			}
			return nil
		},
	}
}
