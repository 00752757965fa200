package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/sitenav/pkg/explorer"
	"github.com/aretw0/sitenav/pkg/navpath"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	ExpandedNodes []string
	CurrentNode   string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from explorer nodes.
// It applies semantic styling:
// - Root: ((Circle))
// - Leaf: [Rectangle]
// - Branch with loaded children: [[Subroutine]]
// - Branch not loaded yet: [/Parallelogram/]
// It also applies overlay styles (Expanded/Current) if provided.
func GenerateMermaid(nodes []explorer.Node, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == navpath.Root:
			opener, closer = "((", "))"
		case node.Leaf:
		case node.Children != nil:
			opener, closer = "[[", "]]"
		default:
			opener, closer = "[/", "/]"
		}

		label := strings.ReplaceAll(node.Name, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for _, child := range node.Children {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(child)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef expanded fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.ExpandedNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && id != overlay.CurrentNode {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s expanded;\n", safeID))
			}
		}
		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

// GenerateOutline renders nodes as an indented outline, one node per line.
func GenerateOutline(nodes []explorer.Node, current string) string {
	var sb strings.Builder
	for _, node := range nodes {
		marker := "-"
		switch {
		case node.ID == current:
			marker = ">"
		case !node.Leaf && node.Children == nil:
			marker = "+"
		}
		indent := strings.Repeat("  ", navpath.Depth(node.ID))
		sb.WriteString(fmt.Sprintf("%s%s %s (%s)\n", indent, marker, node.Name, node.ID))
	}
	return sb.String()
}

// Collect lists the nodes of state in display order, descending into every loaded branch.
func Collect(state *explorer.State) []explorer.Node {
	var nodes []explorer.Node
	state.Walk(func(n explorer.Node, depth int) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

func sanitizeMermaidID(id string) string {
	if id == navpath.Root {
		return "root"
	}
	s := strings.TrimPrefix(id, "/")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "__")
	s = strings.ReplaceAll(s, "$", "_")
	return "n_" + s
}
