package domain

import (
	"context"
	"fmt"
	"strings"
)

// Node is a page of the navigation definition.
// Header and Layout are opaque to the engine; they are carried to the resolved node as-is.
type Node struct {
	Name   string `json:"name" yaml:"name"`
	Header any    `json:"header,omitempty" yaml:"header,omitempty"`
	Layout any    `json:"layout,omitempty" yaml:"layout,omitempty"`

	// Leaf forces the node to be (or not to be) a leaf.
	// When nil, a node is a leaf if it declares no routes and does not inherit a catch-all provider.
	Leaf *bool `json:"leaf,omitempty" yaml:"leaf,omitempty"`

	Routes Routes `json:"-" yaml:"-"`
}

// Route binds a segment to a child node.
type Route struct {
	Segment string
	Node    *Node
}

// Mapping is an ordered list of child routes.
// The order is kept for explorer children and prev/next siblings.
type Mapping []Route

// Lookup returns the node bound to segment.
func (m Mapping) Lookup(segment string) (*Node, bool) {
	for _, r := range m {
		if r.Segment == segment {
			return r.Node, true
		}
	}
	return nil, false
}

// Segments returns the segments in declaration order.
func (m Mapping) Segments() []string {
	out := make([]string, 0, len(m))
	for _, r := range m {
		out = append(out, r.Segment)
	}
	return out
}

// Validate checks every segment and rejects duplicates or nil nodes.
func (m Mapping) Validate() error {
	seen := make(map[string]struct{}, len(m))
	for _, r := range m {
		if !ValidSegment(r.Segment) {
			return fmt.Errorf("%w: %q", ErrInvalidSegment, r.Segment)
		}
		if r.Node == nil {
			return fmt.Errorf("%w: %q has no node", ErrInvalidSegment, r.Segment)
		}
		if _, ok := seen[r.Segment]; ok {
			return fmt.Errorf("%w: duplicate %q", ErrInvalidSegment, r.Segment)
		}
		seen[r.Segment] = struct{}{}
	}
	return nil
}

// ValidSegment reports whether s is a single path segment: a leading '/',
// no other '/', and no '.' (the dot starts the section id in URLs).
func ValidSegment(s string) bool {
	if len(s) < 2 || s[0] != '/' {
		return false
	}
	return !strings.ContainsAny(s[1:], "/.?#")
}

// RoutesKind tags the children provider of a node.
type RoutesKind int

const (
	RoutesNone RoutesKind = iota
	RoutesStatic
	RoutesSync
	RoutesAsync
	RoutesReactive
)

func (k RoutesKind) String() string {
	switch k {
	case RoutesStatic:
		return "static"
	case RoutesSync:
		return "sync"
	case RoutesAsync:
		return "async"
	case RoutesReactive:
		return "reactive"
	default:
		return "none"
	}
}

// SyncFunc computes the children of the node at ctx.Path.
type SyncFunc func(ctx RouteContext) (Mapping, error)

// AsyncFunc computes the children of the node at rctx.Path in the background.
// ctx is cancelled when the router is closed.
type AsyncFunc func(ctx context.Context, rctx RouteContext) (Mapping, error)

// ResolverStream is a source of successive children providers.
// Each emitted Routes replaces the previous one; it must not itself be reactive.
// Closing the channel ends the stream. The returned func releases the subscription.
type ResolverStream interface {
	Subscribe() (<-chan Routes, func())
}

// Routes is the children provider of a node.
// Function providers (sync, async and reactive) act as catch-all: children they return
// without routes of their own inherit the provider for deeper segments.
type Routes struct {
	Kind   RoutesKind
	Static Mapping
	Sync   SyncFunc
	Async  AsyncFunc
	Stream ResolverStream
}

// Static declares a fixed mapping.
func Static(routes ...Route) Routes {
	return Routes{Kind: RoutesStatic, Static: Mapping(routes)}
}

// Sync declares a synchronous catch-all provider.
func Sync(fn SyncFunc) Routes {
	return Routes{Kind: RoutesSync, Sync: fn}
}

// Async declares an asynchronous catch-all provider.
func Async(fn AsyncFunc) Routes {
	return Routes{Kind: RoutesAsync, Async: fn}
}

// Reactive declares a provider that changes over time.
func Reactive(s ResolverStream) Routes {
	return Routes{Kind: RoutesReactive, Stream: s}
}

// IsFunction reports whether the provider is a catch-all.
func (r Routes) IsFunction() bool {
	return r.Kind == RoutesSync || r.Kind == RoutesAsync || r.Kind == RoutesReactive
}

// Bool returns a pointer to b, for Node.Leaf literals.
func Bool(b bool) *bool {
	return &b
}
