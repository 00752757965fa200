package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/sitenav"
	"github.com/aretw0/sitenav/pkg/adapters/mcp"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// RunMCP exposes the navigation as MCP tools over the given transport.
// Logs must not reach Stdout in stdio mode; logger is expected to write to Stderr.
func RunMCP(ctx context.Context, cfg Config, logger *slog.Logger, transport string, port int) error {
	if transport != TransportStdio && transport != TransportSSE {
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}

	root, closeNav, err := OpenNavigation(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNav()

	router, err := sitenav.New(root, RouterOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer router.Close()

	srv := mcp.NewServer(router, logger)
	switch transport {
	case TransportSSE:
		logger.Info("Starting MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	default:
		logger.Info("Starting MCP Server (Stdio)")
		return srv.ServeStdio()
	}
}
