package dsl

import (
	"fmt"

	"github.com/aretw0/sitenav/pkg/adapters/memory"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
)

// Builder manages the navigation construction.
type Builder struct {
	nodes map[string]*NodeBuilder
	order []string
}

// New creates a new navigation builder whose root page is called name.
func New(name string) *Builder {
	b := &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
	b.Add(navpath.Root).Name(name)
	return b
}

// Root returns the builder of the root page.
func (b *Builder) Root() *NodeBuilder {
	return b.nodes[navpath.Root]
}

// Add creates the page at path, whose parent must be added too (in any order).
// If the page already exists, it returns the existing builder.
func (b *Builder) Add(path string) *NodeBuilder {
	path = navpath.Sanitize(path)
	if nb, ok := b.nodes[path]; ok {
		return nb
	}
	nb := &NodeBuilder{
		path:    path,
		builder: b,
	}
	b.nodes[path] = nb
	b.order = append(b.order, path)
	return nb
}

// Build assembles the pages into a navigation source.
// Children are declared in the order they were added.
func (b *Builder) Build() (*memory.Source, error) {
	nodes := make(map[string]*domain.Node, len(b.nodes))
	for _, path := range b.order {
		n := b.nodes[path].Build()
		nodes[path] = &n
	}

	for _, path := range b.order {
		if path == navpath.Root {
			continue
		}
		parent, ok := nodes[navpath.Parent(path)]
		if !ok {
			return nil, fmt.Errorf("failed to build navigation: %w: parent of %q", domain.ErrNotFound, path)
		}
		switch parent.Routes.Kind {
		case domain.RoutesNone:
			parent.Routes = domain.Static()
		case domain.RoutesStatic:
		default:
			return nil, fmt.Errorf("failed to build navigation: %q has %s routes and can not declare %q",
				navpath.Parent(path), parent.Routes.Kind, path)
		}
		segments := navpath.Segments(path)
		parent.Routes.Static = append(parent.Routes.Static, domain.Route{Segment: segments[len(segments)-1], Node: nodes[path]})
	}

	source, err := memory.NewSource(nodes[navpath.Root])
	if err != nil {
		return nil, fmt.Errorf("failed to build memory source: %w", err)
	}
	return source, nil
}
