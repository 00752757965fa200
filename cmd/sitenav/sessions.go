package main

import (
	"os"

	"github.com/aretw0/sitenav/internal/cli"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect persisted browser histories",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		store, closeStore, err := cli.NewHistoryStore(cfg.History, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		return cli.ListSessions(ctx, store, os.Stdout)
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		store, closeStore, err := cli.NewHistoryStore(cfg.History, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		return cli.ShowSession(ctx, store, args[0], os.Stdout)
	},
}

var sessionsResetCmd = &cobra.Command{
	Use:   "reset [id]",
	Short: "Delete the history of a session (default: the server's primary session)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		store, closeStore, err := cli.NewHistoryStore(cfg.History, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		return cli.ResetSession(ctx, store, id)
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsResetCmd)
	sessionsCmd.PersistentFlags().String("redis", "", "Redis address of the history store")
	sessionsCmd.PersistentFlags().String("history-dir", "", "Directory of the file history store")
}
