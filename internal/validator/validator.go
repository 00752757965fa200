package validator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	loamAdapter "github.com/aretw0/sitenav/pkg/adapters/loam"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/explorer"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/aretw0/sitenav/pkg/schema"
)

// Navigator is the part of the router the validator crawls with.
type Navigator interface {
	Expand(ctx context.Context, id string) error
	Explorer() *explorer.State
	GetNav(ctx context.Context, target domain.UrlTarget) (*domain.ResolvedNode, error)
	ResolveHRef(href string) string
}

// linkPattern matches "@nav/..." and "@nav[alias]..." links inside page markdown.
var linkPattern = regexp.MustCompile(`@nav(\[[^\]]+\]|/)[^\s)"'<>]*`)

// Option configures ValidateNavigation.
type Option func(*options)

type options struct {
	headers  schema.Schema
	maxDepth int
}

// WithHeaderSchema checks every page header against s.
func WithHeaderSchema(s schema.Schema) Option {
	return func(o *options) {
		o.headers = s
	}
}

// WithMaxDepth stops the crawl below the given depth. Zero crawls everything.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// ValidateNavigation crawls the navigation from the root and reports branches that fail
// to resolve, headers that do not match the schema and "@nav" links pointing nowhere.
func ValidateNavigation(ctx context.Context, nav Navigator, opts ...Option) error {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	visited := make(map[string]bool)
	queue := []string{navpath.Root}
	var problems []string

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := queue[0]
		queue = queue[1:]

		if visited[id] {
			continue
		}
		visited[id] = true

		node, err := nav.GetNav(ctx, domain.UrlTarget{Path: id})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			problems = append(problems, fmt.Sprintf("Unresolvable page '%s': %v", id, err))
			continue
		}

		problems = append(problems, checkHeader(o.headers, node)...)
		problems = append(problems, checkLinks(ctx, nav, node)...)

		if node.Leaf || (o.maxDepth > 0 && navpath.Depth(id) >= o.maxDepth) {
			continue
		}
		if err := nav.Expand(ctx, id); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			problems = append(problems, fmt.Sprintf("Branch '%s' failed to expand: %v", id, err))
			continue
		}
		children, _ := nav.Explorer().Children(id)
		for _, child := range children {
			if !visited[child.ID] {
				queue = append(queue, child.ID)
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

func checkHeader(s schema.Schema, node *domain.ResolvedNode) []string {
	if len(s) == 0 {
		return nil
	}
	header, _ := node.Header.(map[string]any)
	err := schema.Validate(s, header)
	if err == nil {
		return nil
	}
	var problems []string
	for _, e := range schema.ValidationErrors(err) {
		problems = append(problems, fmt.Sprintf("Page '%s': %v", node.Path, e))
	}
	return problems
}

func checkLinks(ctx context.Context, nav Navigator, node *domain.ResolvedNode) []string {
	var problems []string
	seen := make(map[string]bool)
	for _, link := range Links(pageText(node)) {
		if seen[link] {
			continue
		}
		seen[link] = true

		href := nav.ResolveHRef(link)
		if strings.HasPrefix(href, "@nav") {
			problems = append(problems, fmt.Sprintf("Page '%s': unknown alias in link '%s'", node.Path, link))
			continue
		}
		if !strings.HasPrefix(href, "?") {
			// Aliases may point outside the navigation.
			continue
		}
		target := navpath.ParseURL(href)
		if _, err := nav.GetNav(ctx, target); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				problems = append(problems, fmt.Sprintf("Page '%s': broken link '%s'", node.Path, link))
				continue
			}
			problems = append(problems, fmt.Sprintf("Page '%s': link '%s' failed: %v", node.Path, link, err))
		}
	}
	return problems
}

// Links returns the "@nav" links found in text, in order of appearance.
func Links(text string) []string {
	matches := linkPattern.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.TrimRight(m, ".,;:!?")
	}
	return matches
}

func pageText(node *domain.ResolvedNode) string {
	switch layout := node.Layout.(type) {
	case loamAdapter.Page:
		return layout.Markdown
	case string:
		return layout
	case map[string]any:
		md, _ := layout["markdown"].(string)
		return md
	default:
		return ""
	}
}
