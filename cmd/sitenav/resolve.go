package main

import (
	"os"

	"github.com/aretw0/sitenav/internal/cli"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <location>",
	Short: "Resolve a location against the navigation",
	Long:  `Resolves "<path>[.<section>]" (or an "@nav" href) and prints the target. Exits non-zero when nothing matches.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunResolve(ctx, cfg, logger, args[0], os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
