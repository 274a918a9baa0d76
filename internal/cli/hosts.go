package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/logger"
	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/store"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Manage the registered host set",
}

// hostsAddCmd registers hosts for polling
var hostsAddCmd = &cobra.Command{
	Use:   "add <address>...",
	Short: "Register hosts for polling",
	Long: `Register one or more host addresses. Registered hosts are probed
every check cycle from then on. Registering an existing address is a
no-op.

Examples:
  servermon hosts add 192.168.1.21
  servermon hosts add ws-01 ws-02 ws-03`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.New(cmd.Context(), cfg.Database.ConnString(), logger.Noop())
		if err != nil {
			return err
		}
		defer st.Close()

		for _, host := range args {
			if _, err := st.AddServer(cmd.Context(), host); err != nil {
				return err
			}
			fmt.Printf("registered %s\n", host)
		}
		return nil
	},
}

// hostsListCmd prints registered hosts
var hostsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.New(cmd.Context(), cfg.Database.ConnString(), logger.Noop())
		if err != nil {
			return err
		}
		defer st.Close()

		hosts, err := st.AllHosts(cmd.Context())
		if err != nil {
			return err
		}
		connectable, err := st.ConnectableHosts(cmd.Context())
		if err != nil {
			return err
		}
		up := make(map[string]bool, len(connectable))
		for _, h := range connectable {
			up[h] = true
		}

		for _, h := range hosts {
			state := "down"
			if up[h] {
				state = "up"
			}
			fmt.Printf("%-40s %s\n", h, state)
		}
		return nil
	},
}

func init() {
	hostsCmd.AddCommand(hostsAddCmd)
	hostsCmd.AddCommand(hostsListCmd)
	rootCmd.AddCommand(hostsCmd)
}
