package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/daemon"
)

// checkCmd runs a single check cycle and exits
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one check cycle and exit",
	Long: `Probe every registered host once for connectivity and C: drive
capacity, persist the verdicts, and exit.

Useful for verifying credentials and database wiring before starting
the daemon, or for cron-driven setups that do not want a resident
process.

Examples:
  servermon check
  servermon check --config /etc/servermon/servermon.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), (*daemon.Daemon).CheckCycle)
	},
}

// extractCmd runs a single extract cycle and exits
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run one extract cycle and exit",
	Long: `Probe the previously-connectable hosts once for CPU, memory,
active users, and client sessions, persist the results, and exit.

Hosts with no successful check on record are skipped; run
"servermon check" first.

Examples:
  servermon extract`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), (*daemon.Daemon).ExtractCycle)
	},
}

func runOnce(ctx context.Context, cycle func(*daemon.Daemon, context.Context) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	d, cleanup, err := buildDaemon(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	return cycle(d, ctx)
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(extractCmd)
}
