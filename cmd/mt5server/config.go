// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/Girish-SCM/mt5-server/internal/config"
	"github.com/Girish-SCM/mt5-server/internal/platform"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	configCmd.AddCommand(newConfigShowCmd(a))
	return configCmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := a.cfg

			fmt.Println(TitleStyle.Render("Container"))
			fmt.Printf("  Name:       %s\n", cfg.ContainerName)
			fmt.Printf("  Image:      %s\n", cfg.ImageRef(runtime.GOARCH))
			fmt.Printf("  Bind:       %s\n", cfg.BindAddress)
			fmt.Printf("  VNC pass:   %s\n", maskSecret(cfg.VNCPassword))

			fmt.Println(TitleStyle.Render("Ports"))
			fmt.Printf("  VNC:        %d\n", cfg.Ports.VNC)
			fmt.Printf("  Web:        %d\n", cfg.Ports.Web)
			fmt.Printf("  RPC:        %d\n", cfg.Ports.RPC)

			fmt.Println(TitleStyle.Render("Machine"))
			fmt.Printf("  CPUs:       %d\n", cfg.Machine.CPUs)
			fmt.Printf("  Memory:     %d MB\n", cfg.Machine.MemoryMB)
			fmt.Printf("  Disk:       %d GB\n", cfg.Machine.DiskGB)

			fmt.Println(TitleStyle.Render("Account"))
			if cfg.Account.Login == "" {
				fmt.Println("  " + SubtitleStyle.Render("not configured; log in inside the terminal"))
			} else {
				fmt.Printf("  Login:      %s\n", cfg.Account.Login)
				fmt.Printf("  Password:   %s\n", maskSecret(cfg.Account.Password))
				fmt.Printf("  Server:     %s\n", cfg.Account.Server)
			}

			if cfgDir, err := platform.ConfigDir(config.AppName); err == nil {
				path := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
				fmt.Println("\n" + SubtitleStyle.Render("Config file: "+path))
			}
			return nil
		},
	}
}

// maskSecret hides secret values while still showing whether one is set.
func maskSecret(v string) string {
	if v == "" {
		return "(not set)"
	}
	return "********"
}
