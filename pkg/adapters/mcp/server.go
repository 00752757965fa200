package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/sitenav"
	"github.com/aretw0/sitenav/internal/logging"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/explorer"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TargetURI is the resource exposing the current target.
const TargetURI = "sitenav://target"

// NavigateResponse is the structured result of the navigate tool.
type NavigateResponse struct {
	Target   domain.Target `json:"target" jsonschema_description:"The published target"`
	Previous string        `json:"previous,omitempty" jsonschema_description:"Path of the previous page in reading order"`
	Next     string        `json:"next,omitempty" jsonschema_description:"Path of the next page in reading order"`
}

// Router defines the router surface exposed to MCP clients. *sitenav.Router implements it.
type Router interface {
	Current() domain.Target
	Navigate(ctx context.Context, raw string) (domain.Target, error)
	GetNav(ctx context.Context, target domain.UrlTarget) (*domain.ResolvedNode, error)
	Expand(ctx context.Context, id string) error
	Explorer() *explorer.State
	Siblings() (prev, next *explorer.Node)
}

// Server exposes a router as an MCP Server.
type Server struct {
	router    Router
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(router Router, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		router:    router,
		logger:    logger,
		mcpServer: server.NewMCPServer("sitenav-mcp", strings.TrimSpace(sitenav.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: navigate
	navigateTool := mcp.NewTool("navigate",
		mcp.WithDescription("Navigate to a documentation page. Paths look like /guide/install, optionally followed by .sectionId."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Page path, e.g. /guide/install.requirements")),
		mcp.WithOutputSchema[NavigateResponse](),
	)
	s.mcpServer.AddTool(navigateTool, mcp.NewStructuredToolHandler(s.handleNavigate))

	// TOOL: get_nav
	s.mcpServer.AddTool(mcp.NewTool("get_nav",
		mcp.WithDescription("Resolve a page without navigating to it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Page path")),
	), s.handleGetNav)

	// TOOL: explorer
	s.mcpServer.AddTool(mcp.NewTool("explorer",
		mcp.WithDescription("List the children of a page, resolving them if needed."),
		mcp.WithString("path", mcp.Description("Page path (default /)")),
	), s.handleExplorer)
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NavigateResponse, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return NavigateResponse{}, errors.New("path is required")
	}

	t, err := s.router.Navigate(ctx, path)
	if err != nil {
		s.logger.Warn("MCP Navigate failed", "path", path, "error", err)
		return NavigateResponse{}, fmt.Errorf("navigate failed: %w", err)
	}

	resp := NavigateResponse{Target: t}
	if prev, next := s.router.Siblings(); prev != nil || next != nil {
		if prev != nil {
			resp.Previous = prev.ID
		}
		if next != nil {
			resp.Next = next.ID
		}
	}
	return resp, nil
}

func (s *Server) handleGetNav(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	node, err := s.router.GetNav(ctx, navpath.Parse(path))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(node)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleExplorer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := navpath.Sanitize(request.GetString("path", navpath.Root))
	if err := s.router.Expand(ctx, path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("expand failed: %v", err)), nil
	}
	children, _ := s.router.Explorer().Children(path)
	jsonBytes, _ := json.Marshal(children)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: sitenav://target
	s.mcpServer.AddResource(mcp.NewResource(TargetURI, "Current Navigation Target",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.router.Current())
		if err != nil {
			return nil, fmt.Errorf("failed to encode target: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TargetURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
