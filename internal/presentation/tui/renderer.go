package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/explorer"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// ProfileOf returns the color profile of w. Writers wrapping a terminal report it
// through a ColorProfile method; anything else but a color terminal is Ascii.
func ProfileOf(w io.Writer) termenv.Profile {
	if pw, ok := w.(interface{ ColorProfile() termenv.Profile }); ok {
		return pw.ColorProfile()
	}
	return termenv.NewOutput(w).Profile
}

// RenderTree renders explorer nodes as a tree, highlighting the current node.
// Styles are dropped when p is Ascii.
func RenderTree(p termenv.Profile, nodes []explorer.Node, current string) string {
	var sb strings.Builder
	for _, n := range nodes {
		indent := strings.Repeat("  ", navpath.Depth(n.ID))
		icon := "▸"
		if n.Leaf {
			icon = "•"
		} else if n.Children != nil {
			icon = "▾"
		}

		label := p.String(n.Name)
		switch {
		case n.ID == current:
			label = label.Foreground(p.Color("#fbbf24")).Bold()
		case !n.Leaf:
			label = label.Foreground(p.Color("#a78bfa"))
		}
		id := p.String(n.ID).Faint()
		sb.WriteString(fmt.Sprintf("%s%s %s %s\n", indent, icon, label, id))
	}
	return sb.String()
}

// RenderTarget renders a one-line status for a target.
func RenderTarget(p termenv.Profile, t domain.Target) string {
	kind := p.String(string(t.Kind))
	switch t.Kind {
	case domain.TargetResolved:
		kind = kind.Foreground(p.Color("#34d399"))
	case domain.TargetNotFound:
		kind = kind.Foreground(p.Color("#f87171"))
	default:
		kind = kind.Foreground(p.Color("#fbbf24"))
	}

	name := ""
	if t.Node != nil {
		name = " " + t.Node.Name
	}
	return fmt.Sprintf("[%s] %s%s", kind, navpath.Format(t.URL()), name)
}
