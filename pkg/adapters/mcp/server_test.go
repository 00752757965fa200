package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/sitenav"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/explorer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Server, *sitenav.Router) {
	t.Helper()
	nav := &domain.Node{Name: "Home", Routes: domain.Static(
		domain.Route{Segment: "/guide", Node: &domain.Node{Name: "Guide", Routes: domain.Static(
			domain.Route{Segment: "/install", Node: &domain.Node{Name: "Install"}},
			domain.Route{Segment: "/usage", Node: &domain.Node{Name: "Usage"}},
		)}},
	)}
	router, err := sitenav.New(nav, sitenav.WithScrollingDebounce(0), sitenav.WithInitialNavigation(false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = router.Close() })
	return NewServer(router, nil), router
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestHandleNavigate(t *testing.T) {
	s, router := newServer(t)

	resp, err := s.handleNavigate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"path": "/guide/install"})
	require.NoError(t, err)
	assert.Equal(t, domain.TargetResolved, resp.Target.Kind)
	assert.Equal(t, "Install", resp.Target.Node.Name)
	assert.Equal(t, "/guide", resp.Previous)
	assert.Equal(t, "/guide/usage", resp.Next)
	assert.Equal(t, "/guide/install", router.Current().Path)

	_, err = s.handleNavigate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)
}

func TestHandleGetNav(t *testing.T) {
	s, router := newServer(t)

	res, err := s.handleGetNav(context.Background(), callRequest(map[string]any{"path": "/guide/usage"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := res.Content[0].(mcp.TextContent).Text
	var node domain.ResolvedNode
	require.NoError(t, json.Unmarshal([]byte(text), &node))
	assert.Equal(t, "Usage", node.Name)
	assert.Empty(t, router.Current().Path)

	res, err = s.handleGetNav(context.Background(), callRequest(map[string]any{"path": "/missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleExplorer(t *testing.T) {
	s, _ := newServer(t)

	res, err := s.handleExplorer(context.Background(), callRequest(map[string]any{"path": "/guide"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var children []explorer.Node
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &children))
	require.Len(t, children, 2)
	assert.Equal(t, "/guide/install", children[0].ID)
}
