package main

import (
	"os"

	"github.com/aretw0/sitenav/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [source]",
	Short: "Check the navigation for broken links and invalid headers",
	Long: `Crawls every page of the navigation, expanding all branches, and reports:
  - branches whose routes provider fails
  - "@nav" links that do not resolve
  - headers that do not match validate.header_schema`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"source-arg": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunValidate(ctx, cfg, logger, os.Stdout)
	},
}

func init() {
	validateCmd.Flags().Int("max-depth", 0, "Stop crawling below this depth (0 crawls everything)")
	rootCmd.AddCommand(validateCmd)
}
