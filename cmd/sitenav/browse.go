package main

import (
	"os"

	"github.com/aretw0/sitenav/internal/cli"
	"github.com/aretw0/sitenav/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var browseCmd = &cobra.Command{
	Use:         "browse [source]",
	Short:       "Navigate interactively",
	Long:        `Starts an interactive session: type a location to navigate, "back"/"forward" to move through the history, "tree", "expand <path>", "show" or "q" to quit.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"source-arg": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		opts := cli.BrowseOptions{
			Prompt: interactive,
			Banner: interactive,
		}
		if interactive {
			r, err := tui.NewRenderer()
			if err != nil {
				return err
			}
			opts.Render = r
		}
		return cli.RunBrowse(ctx, cfg, logger, os.Stdin, os.Stdout, opts)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	// Running without a subcommand browses.
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.Annotations = map[string]string{"source-arg": "true"}
	rootCmd.RunE = browseCmd.RunE
}
