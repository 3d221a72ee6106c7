// Command probeops runs batches of service checks, either once from a
// configuration file or continuously behind an HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "probeops",
		Short:         "Parallel service check runner",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "probeops.yaml", "path to configuration file")

	cmd.AddCommand(versionCmd())
	cmd.AddCommand(runCmd(&configPath))
	cmd.AddCommand(serveCmd(&configPath))
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "probeops", version)
		},
	}
}
