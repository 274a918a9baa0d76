// Package cli defines the servermon command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "servermon",
	Short: "Windows fleet health poller",
	Long: `servermon polls a fleet of Windows hosts over SSH on two cadences:
a slow connectivity and disk-capacity check, and a fast CPU, memory,
active-user, and client-session extraction. Results are persisted to
PostgreSQL for downstream aggregation and dashboards.

Hosts are registered once (see "servermon hosts add") and probed every
cycle from then on.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree and maps failure onto the exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file path (default ./servermon.yaml)")
}
