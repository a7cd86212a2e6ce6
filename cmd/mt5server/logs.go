// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogsCmd(a *app) *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent terminal container output",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return a.fail(err)
			}
			client, err := a.resolveClient(cmd.Context(), svc)
			if err != nil {
				return a.fail(err)
			}

			out, err := a.manager(client).Logs(cmd.Context(), tail)
			if err != nil {
				return a.fail(err)
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&tail, "tail", 100, "number of log lines to show")
	return cmd
}
