package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/sitenav"
	"github.com/aretw0/sitenav/internal/presentation/graph"
	"github.com/aretw0/sitenav/internal/presentation/tui"
	loamAdapter "github.com/aretw0/sitenav/pkg/adapters/loam"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
	"gopkg.in/yaml.v3"
)

// TreeFormat selects how RunTree prints the explorer.
type TreeFormat string

const (
	TreeText    TreeFormat = "text"
	TreeOutline TreeFormat = "outline"
	TreeMermaid TreeFormat = "mermaid"
)

// openRouter loads the navigation and creates a router without initial navigation.
func openRouter(ctx context.Context, cfg Config, logger *slog.Logger) (*sitenav.Router, func(), error) {
	root, closeNav, err := OpenNavigation(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	opts := append(RouterOptions(cfg, logger), sitenav.WithInitialNavigation(false))
	router, err := sitenav.New(root, opts...)
	if err != nil {
		closeNav()
		return nil, nil, err
	}
	return router, func() {
		router.Close()
		closeNav()
	}, nil
}

// RunResolve navigates to raw and prints the resulting target.
func RunResolve(ctx context.Context, cfg Config, logger *slog.Logger, raw string, out io.Writer) error {
	router, closeFn, err := openRouter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	target, err := router.Navigate(ctx, raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tui.RenderTarget(tui.ProfileOf(out), target))
	if target.Kind == domain.TargetNotFound {
		return fmt.Errorf("%s: %w", target.Path, domain.ErrNotFound)
	}
	return nil
}

// RunTree resolves the navigation down to depth levels (0 resolves everything)
// and prints the explorer in the given format, highlighting current when set.
func RunTree(ctx context.Context, cfg Config, logger *slog.Logger, current string, depth int, format TreeFormat, out io.Writer) error {
	router, closeFn, err := openRouter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	if current != "" {
		t, err := router.Navigate(ctx, current)
		if err != nil {
			return err
		}
		current = t.Path
	}
	if err := expandAll(ctx, router, navpath.Root, depth); err != nil {
		return err
	}

	nodes := graph.Collect(router.Explorer())
	switch format {
	case TreeMermaid:
		fmt.Fprint(out, graph.GenerateMermaid(nodes, &graph.GraphOverlay{
			ExpandedNodes: router.Explorer().Expanded(),
			CurrentNode:   current,
		}))
	case TreeOutline:
		fmt.Fprint(out, graph.GenerateOutline(nodes, current))
	default:
		fmt.Fprint(out, tui.RenderTree(tui.ProfileOf(out), nodes, current))
	}
	return nil
}

func expandAll(ctx context.Context, router *sitenav.Router, id string, depth int) error {
	if depth > 0 && navpath.Depth(id) >= depth {
		return nil
	}
	if err := router.Expand(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Broken branches are listed unexpanded; "validate" reports them.
			return nil
		}
		return fmt.Errorf("failed to expand %s: %w", id, err)
	}
	children, _ := router.Explorer().Children(id)
	for _, child := range children {
		if child.Leaf {
			continue
		}
		if err := expandAll(ctx, router, child.ID, depth); err != nil {
			return err
		}
	}
	return nil
}

// RunShow resolves raw and renders the page attached to it.
// render turns markdown into terminal output; nil prints the markdown as is.
func RunShow(ctx context.Context, cfg Config, logger *slog.Logger, raw string, render func(string) (string, error), out io.Writer) error {
	router, closeFn, err := openRouter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	target, err := router.Navigate(ctx, raw)
	if err != nil {
		return err
	}
	if target.Kind != domain.TargetResolved {
		fmt.Fprintln(out, tui.RenderTarget(tui.ProfileOf(out), target))
		return fmt.Errorf("%s: %w", target.Path, domain.ErrNotFound)
	}

	markdown := PageMarkdown(target.Node)
	if render != nil {
		rendered, err := render(markdown)
		if err != nil {
			return fmt.Errorf("failed to render page: %w", err)
		}
		markdown = rendered
	}
	fmt.Fprint(out, markdown)
	return nil
}

// PageMarkdown returns the markdown displayed for a resolved node.
// Markdown pages are returned verbatim; other layouts are dumped as YAML under the node title.
func PageMarkdown(node *domain.ResolvedNode) string {
	switch layout := node.Layout.(type) {
	case loamAdapter.Page:
		return layout.Markdown
	case string:
		if strings.TrimSpace(layout) != "" {
			return fmt.Sprintf("# %s\n\n%s\n", node.Name, layout)
		}
	case map[string]any:
		if md, ok := layout["markdown"].(string); ok {
			return md
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", node.Name)
	if node.Header != nil || node.Layout != nil {
		data, err := yaml.Marshal(map[string]any{"header": node.Header, "layout": node.Layout})
		if err == nil {
			fmt.Fprintf(&sb, "```yaml\n%s```\n", data)
		}
	}
	return sb.String()
}
