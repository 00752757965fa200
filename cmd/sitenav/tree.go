package main

import (
	"os"

	"github.com/aretw0/sitenav/internal/cli"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:         "tree [source]",
	Short:       "Print the navigation tree",
	Long:        `Resolves the navigation and prints it as a colored tree, a plain outline or a Mermaid diagram (graph TD).`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"source-arg": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		current, _ := cmd.Flags().GetString("current")
		depth, _ := cmd.Flags().GetInt("depth")
		format := cli.TreeText
		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			format = cli.TreeMermaid
		} else if outline, _ := cmd.Flags().GetBool("outline"); outline {
			format = cli.TreeOutline
		}
		return cli.RunTree(ctx, cfg, logger, current, depth, format, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Bool("mermaid", false, "Print a Mermaid diagram")
	treeCmd.Flags().Bool("outline", false, "Print a plain outline")
	treeCmd.Flags().String("current", "", "Location to highlight")
	treeCmd.Flags().Int("depth", 0, "Levels to resolve (0 resolves everything)")
}
