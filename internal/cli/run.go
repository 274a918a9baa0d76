package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/store"
)

// runCmd starts the polling daemon
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the polling daemon",
	Long: `Start the long-running poller.

Applies pending schema migrations, then drives both cadences until
interrupted: the check job (connectivity + disk) against all registered
hosts on the long interval, and the extract job (CPU, memory, users,
client sessions) against previously-connectable hosts on the short
interval.

SIGINT or SIGTERM stops the daemon cleanly between cycles.

Examples:
  servermon run
  servermon run --config /etc/servermon/servermon.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		if err := store.Migrate(cfg.Database.ConnString()); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d, cleanup, err := buildDaemon(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		d.Run(ctx, cfg.Check.Duration(), cfg.Extract.Duration())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
