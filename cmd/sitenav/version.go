package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/sitenav"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sitenav",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sitenav version %s\n", strings.TrimSpace(sitenav.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
