package main

import (
	"os"

	"github.com/aretw0/sitenav/internal/cli"
	"github.com/aretw0/sitenav/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var showCmd = &cobra.Command{
	Use:   "show <location>",
	Short: "Render the page of a location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		var render func(string) (string, error)
		if raw, _ := cmd.Flags().GetBool("raw"); !raw && term.IsTerminal(int(os.Stdout.Fd())) {
			r, err := tui.NewRenderer()
			if err != nil {
				return err
			}
			render = r
		}
		return cli.RunShow(ctx, cfg, logger, args[0], render, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("raw", false, "Print markdown without rendering")
}
