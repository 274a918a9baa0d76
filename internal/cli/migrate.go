package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/store"
)

// migrateCmd applies pending schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Long: `Apply any pending schema migrations and exit.

"servermon run" migrates automatically at startup; this command exists
for deployments that separate schema changes from daemon restarts.

Examples:
  servermon migrate
  servermon migrate --config /etc/servermon/servermon.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := store.Migrate(cfg.Database.ConnString()); err != nil {
			return err
		}
		fmt.Println("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
