package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/explorer"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var treeNodes = []explorer.Node{
	{ID: "/", Name: "Home", Children: []string{"/a"}},
	{ID: "/a", Name: "A", Leaf: true},
	{ID: "/b", Name: "B"},
}

func TestRenderTree(t *testing.T) {
	out := RenderTree(termenv.Ascii, treeNodes, "/a")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "▾ Home /", lines[0])
	assert.Equal(t, "  • A /a", lines[1])
	assert.Equal(t, "  ▸ B /b", lines[2])
}

func TestRenderTree_Colors(t *testing.T) {
	out := RenderTree(termenv.TrueColor, treeNodes, "/a")
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "A")
}

func TestProfileOf(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "")
	assert.Equal(t, termenv.Ascii, ProfileOf(&bytes.Buffer{}))
}

type profiled struct {
	bytes.Buffer
}

func (profiled) ColorProfile() termenv.Profile { return termenv.ANSI256 }

func TestProfileOf_Wrapper(t *testing.T) {
	assert.Equal(t, termenv.ANSI256, ProfileOf(&profiled{}))
}

func TestRenderTarget(t *testing.T) {
	out := RenderTarget(termenv.Ascii, domain.Target{
		Kind:      domain.TargetResolved,
		Path:      "/guide",
		SectionID: "intro",
		Node:      &domain.ResolvedNode{Name: "Guide"},
	})
	assert.Equal(t, "[Resolved] /guide.intro Guide", out)
}

func TestRenderer(t *testing.T) {
	render, err := NewRenderer()
	require.NoError(t, err)
	out, err := render("# Title\n\nBody")
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
	assert.NotContains(t, buf.String(), "\x1b[")
}
