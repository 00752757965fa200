package main

import (
	"os"

	"github.com/aretw0/sitenav/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:         "serve [source]",
	Short:       "Start the HTTP navigation server",
	Long:        `Serves the navigation over HTTP: JSON endpoints, server-sent events, a websocket browser session per client and Prometheus metrics.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"source-arg": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunServer(ctx, cfg, logger, os.Stdout, cli.ServeOptions{})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().String("redis", "", "Redis address persisting browser histories (memory when empty)")
	serveCmd.Flags().String("history-dir", "", "Directory persisting browser histories when no Redis is set")
	serveCmd.Flags().Duration("scroll-debounce", 0, "Scroll debounce of the routers (default from config)")
}
