package dsl

import "github.com/aretw0/sitenav/pkg/domain"

// NodeBuilder provides a fluent API for configuring a page.
type NodeBuilder struct {
	path    string
	node    domain.Node
	builder *Builder
}

// Name sets the display name of the page.
func (n *NodeBuilder) Name(name string) *NodeBuilder {
	n.node.Name = name
	return n
}

// Header attaches arbitrary header data (icons, badges) to the page.
func (n *NodeBuilder) Header(header any) *NodeBuilder {
	n.node.Header = header
	return n
}

// Layout attaches the layout the page is rendered with.
func (n *NodeBuilder) Layout(layout any) *NodeBuilder {
	n.node.Layout = layout
	return n
}

// Leaf forces the leaf flag of the page.
func (n *NodeBuilder) Leaf(leaf bool) *NodeBuilder {
	n.node.Leaf = domain.Bool(leaf)
	return n
}

// Sync makes the page's children computed by fn, which describes the whole subtree.
func (n *NodeBuilder) Sync(fn domain.SyncFunc) *NodeBuilder {
	n.node.Routes = domain.Sync(fn)
	return n
}

// Async makes the page's children loaded by fn.
func (n *NodeBuilder) Async(fn domain.AsyncFunc) *NodeBuilder {
	n.node.Routes = domain.Async(fn)
	return n
}

// Reactive makes the page's children follow the routes emitted by stream.
func (n *NodeBuilder) Reactive(stream domain.ResolverStream) *NodeBuilder {
	n.node.Routes = domain.Reactive(stream)
	return n
}

// Add declares a child page below this one.
func (n *NodeBuilder) Add(segment string) *NodeBuilder {
	return n.builder.Add(n.path + "/" + segment)
}

// Path returns the absolute path of the page.
func (n *NodeBuilder) Path() string {
	return n.path
}

// Build returns the underlying domain.Node, without the children declared through the Builder.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
