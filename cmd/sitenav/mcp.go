package main

import (
	"log/slog"

	"github.com/aretw0/sitenav/internal/cli"
	"github.com/aretw0/sitenav/internal/logging"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [source]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the navigation as MCP tools (navigate, get_nav, explorer) and the current target as a resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"source-arg": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		// Stdout carries JSON-RPC; logs always go to stderr.
		mcpLogger := logger
		if !cfg.Debug {
			mcpLogger = logging.New(slog.LevelInfo, logging.WithFormat(cfg.LogFormat))
		}
		return cli.RunMCP(ctx, cfg, mcpLogger, transport, port)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", cli.TransportStdio, "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
