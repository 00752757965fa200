// Package explorer holds the tree-view state of a navigation: the nodes resolved so far,
// the selected node and the expanded branches.
//
// Every selection expands all the ancestors of the selected node, and an ancestor of the
// selection cannot be collapsed.
package explorer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/aretw0/sitenav/pkg/stream"
)

// Node is an explorer entry. Children is nil until the node's children were resolved.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Header   any      `json:"header,omitempty"`
	Parent   string   `json:"parent,omitempty"`
	Leaf     bool     `json:"leaf"`
	Children []string `json:"children,omitempty"`
}

// Resolved reports whether the node's children are known.
func (n Node) Resolved() bool {
	return n.Leaf || n.Children != nil
}

// State is the explorer state. It is safe for concurrent use.
type State struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	expanded map[string]struct{}
	selected string
	version  uint64

	selectedStream *stream.Subject[string]
	expandedStream *stream.Subject[[]string]
	rootStream     *stream.Subject[uint64]
}

// New creates a State holding only the root node.
func New(root *domain.ResolvedNode) *State {
	s := &State{
		nodes:          make(map[string]*Node),
		expanded:       make(map[string]struct{}),
		selectedStream: stream.NewSubject[string](),
		expandedStream: stream.NewBehaviorSubject([]string{}),
		rootStream:     stream.NewBehaviorSubject(uint64(0)),
	}
	s.nodes[navpath.Root] = &Node{
		ID:     navpath.Root,
		Name:   root.Name,
		Header: root.Header,
		Leaf:   root.Leaf,
	}
	return s
}

// GetNode returns a copy of the node with the given id.
func (s *State) GetNode(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[navpath.Sanitize(id)]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// GetNodeResolved returns the node with the given id and fails loudly when it is not known.
// Callers only use it for nodes they know were resolved.
func (s *State) GetNodeResolved(id string) (Node, error) {
	n, ok := s.GetNode(id)
	if !ok {
		return Node{}, fmt.Errorf("%w: %q", domain.ErrNotResolved, id)
	}
	return n, nil
}

// GetParent returns the parent of the node with the given id.
func (s *State) GetParent(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[navpath.Sanitize(id)]
	if !ok || n.ID == navpath.Root {
		return Node{}, false
	}
	p, ok := s.nodes[n.Parent]
	if !ok {
		return Node{}, false
	}
	return p.clone(), true
}

// Children returns copies of the children of id; false when they are not resolved.
func (s *State) Children(id string) ([]Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[navpath.Sanitize(id)]
	if !ok || n.Children == nil {
		return nil, false
	}
	out := make([]Node, 0, len(n.Children))
	for _, c := range n.Children {
		if child, ok := s.nodes[c]; ok {
			out = append(out, child.clone())
		}
	}
	return out, true
}

// Record sets the children of parent, in order. Known grandchildren are kept.
func (s *State) Record(parent string, children []*domain.ResolvedNode) {
	parent = navpath.Sanitize(parent)

	s.mu.Lock()
	p, ok := s.nodes[parent]
	if !ok {
		s.mu.Unlock()
		return
	}
	ids := make([]string, 0, len(children))
	keep := make(map[string]struct{}, len(children))
	for _, c := range children {
		ids = append(ids, c.Path)
		keep[c.Path] = struct{}{}
		n, ok := s.nodes[c.Path]
		if !ok {
			n = &Node{ID: c.Path}
			s.nodes[c.Path] = n
		}
		n.Name = c.Name
		n.Header = c.Header
		n.Parent = parent
		n.Leaf = c.Leaf
	}
	for _, old := range p.Children {
		if _, ok := keep[old]; !ok {
			s.dropLocked(old)
		}
	}
	p.Children = ids
	s.version++
	v := s.version
	s.mu.Unlock()

	s.rootStream.Next(v)
}

// Invalidate forgets the children of id and every descendant.
func (s *State) Invalidate(id string) {
	id = navpath.Sanitize(id)

	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok || n.Children == nil {
		s.mu.Unlock()
		return
	}
	for _, c := range n.Children {
		s.dropLocked(c)
	}
	n.Children = nil
	s.version++
	v := s.version
	s.mu.Unlock()

	s.rootStream.Next(v)
}

// Select selects id and expands all of its ancestors. The node must be known.
func (s *State) Select(id string) error {
	id = navpath.Sanitize(id)

	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", domain.ErrNotResolved, id)
	}
	ids := navpath.PathIDs(id)
	for _, a := range ids[:len(ids)-1] {
		s.expanded[a] = struct{}{}
	}
	if !n.Leaf {
		s.expanded[id] = struct{}{}
	}
	s.selected = id
	expanded := s.expandedLocked()
	s.mu.Unlock()

	s.expandedStream.Next(expanded)
	s.selectedStream.Next(id)
	return nil
}

// Selected returns the selected node id.
func (s *State) Selected() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected != ""
}

// Expand expands id.
func (s *State) Expand(id string) {
	s.mu.Lock()
	s.expanded[navpath.Sanitize(id)] = struct{}{}
	expanded := s.expandedLocked()
	s.mu.Unlock()

	s.expandedStream.Next(expanded)
}

// Collapse collapses id. It refuses, returning false, when id is an ancestor of the selection.
func (s *State) Collapse(id string) bool {
	id = navpath.Sanitize(id)

	s.mu.Lock()
	if s.selected != "" && s.selected != id && navpath.IsWithin(s.selected, id) {
		s.mu.Unlock()
		return false
	}
	delete(s.expanded, id)
	expanded := s.expandedLocked()
	s.mu.Unlock()

	s.expandedStream.Next(expanded)
	return true
}

// Toggle flips the expansion of id and reports whether it is now expanded.
func (s *State) Toggle(id string) bool {
	if s.IsExpanded(id) {
		return !s.Collapse(id)
	}
	s.Expand(id)
	return true
}

// IsExpanded reports whether id is expanded.
func (s *State) IsExpanded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.expanded[navpath.Sanitize(id)]
	return ok
}

// Expanded returns the expanded ids, sorted.
func (s *State) Expanded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expandedLocked()
}

// SelectedNode streams the selected node id.
func (s *State) SelectedNode() (<-chan string, func()) {
	return s.selectedStream.Subscribe()
}

// ExpandedNodes streams the sorted expanded ids.
func (s *State) ExpandedNodes() (<-chan []string, func()) {
	return s.expandedStream.Subscribe()
}

// Root streams a version number bumped on every structural change.
func (s *State) Root() (<-chan uint64, func()) {
	return s.rootStream.Subscribe()
}

// Walk visits the known nodes depth-first, in children order, starting at the root.
// Returning false from fn skips the node's children.
func (s *State) Walk(fn func(n Node, depth int) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.walkLocked(navpath.Root, 0, fn)
}

// Close completes the streams.
func (s *State) Close() {
	s.selectedStream.Close()
	s.expandedStream.Close()
	s.rootStream.Close()
}

func (s *State) walkLocked(id string, depth int, fn func(Node, int) bool) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	if !fn(n.clone(), depth) {
		return
	}
	for _, c := range n.Children {
		s.walkLocked(c, depth+1, fn)
	}
}

func (s *State) dropLocked(id string) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.Children {
		s.dropLocked(c)
	}
	delete(s.nodes, id)
}

func (s *State) expandedLocked() []string {
	out := make([]string, 0, len(s.expanded))
	for id := range s.expanded {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (n *Node) clone() Node {
	c := *n
	if n.Children != nil {
		c.Children = append([]string{}, n.Children...)
	}
	return c
}
