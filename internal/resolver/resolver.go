// Package resolver turns a navigation definition into resolved nodes, one path at a time.
//
// Resolution walks the path segment by segment from the root. Each node's children come
// from its routes provider: a static mapping, a sync or async function, or a reactive
// stream of providers. Function providers are catch-all: children they return without
// routes of their own inherit the provider for deeper segments.
//
// Results are memoized per path, async computations are launched once per node, and
// reactive streams are subscribed to once per owner. A pending computation yields a
// Pending result carrying a channel that is closed when resolution may progress.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/sitenav/internal/logging"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
)

// Result is the outcome of resolving one path.
type Result struct {
	Kind domain.TargetKind
	Node *domain.ResolvedNode
	// Wait is closed when a pending computation settles. Nil unless Kind is Pending.
	Wait <-chan struct{}
	// Err details a NotFound outcome; it wraps domain.ErrNotFound.
	Err error
}

// Visitor is told about every mapping the resolver evaluates, children in declaration order.
type Visitor func(parent string, children []*domain.ResolvedNode)

// UpdateHandler is told when a reactive provider owned by owner emitted a new value.
type UpdateHandler func(owner string)

// Option configures a Resolver.
type Option func(*Resolver)

// WithNavigator sets the router handed to function providers.
func WithNavigator(nav domain.Navigator) Option {
	return func(r *Resolver) {
		r.navigator = nav
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithVisitor sets the mapping visitor.
func WithVisitor(v Visitor) Option {
	return func(r *Resolver) {
		r.visit = v
	}
}

// WithUpdateHandler sets the reactive emission handler.
func WithUpdateHandler(h UpdateHandler) Option {
	return func(r *Resolver) {
		r.onUpdate = h
	}
}

// provider is the routes a node's children come from, with the path that declared them.
type provider struct {
	owner  string
	routes domain.Routes
}

type entry struct {
	node      *domain.ResolvedNode
	spec      *domain.Node
	inherited *provider
}

// Resolver resolves paths against a navigation definition.
type Resolver struct {
	root      *domain.Node
	navigator domain.Navigator
	logger    *slog.Logger
	visit     Visitor
	onUpdate  UpdateHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	entries  map[string]*entry
	children map[string][]string
	async    map[string]*asyncEntry
	subs     map[string]*subscription
}

// New creates a Resolver for the navigation rooted at root.
func New(root *domain.Node, opts ...Option) *Resolver {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Resolver{
		root:     root,
		logger:   logging.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]*entry),
		children: make(map[string][]string),
		async:    make(map[string]*asyncEntry),
		subs:     make(map[string]*subscription),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.entries[navpath.Root] = &entry{
		node: &domain.ResolvedNode{
			Path:   navpath.Root,
			Name:   root.Name,
			Header: root.Header,
			Layout: root.Layout,
			Leaf:   isLeaf(root, nil),
			Spec:   root,
		},
		spec: root,
	}
	return r
}

// Resolve resolves path. It never blocks on providers: asynchronous work yields Pending.
func (r *Resolver) Resolve(path string) Result {
	path = navpath.Sanitize(path)

	var visits []visit
	defer func() {
		if r.visit == nil {
			return
		}
		for _, v := range visits {
			r.visit(v.parent, v.children)
		}
	}()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return notFound(path, domain.ErrRouterClosed)
	}
	cur := r.entries[navpath.Root]
	r.mu.Unlock()

	for _, seg := range navpath.Segments(path) {
		childPath := navpath.Join(cur.node.Path, seg)

		r.mu.Lock()
		child, ok := r.entries[childPath]
		_, mapped := r.children[cur.node.Path]
		r.mu.Unlock()
		if ok {
			cur = child
			continue
		}
		if mapped {
			return notFound(path, fmt.Errorf("%w: no route %q under %q", domain.ErrNotFound, seg, cur.node.Path))
		}

		p := r.providerOf(cur)
		if p == nil {
			return notFound(path, fmt.Errorf("%w: %q has no children", domain.ErrNotFound, cur.node.Path))
		}

		res, m := r.mappingFor(*p, cur.node.Path)
		if res.Kind != "" {
			return res
		}

		kids, ok := r.record(cur, *p, m)
		if !ok {
			// Invalidated while computing; the caller retries on the next signal.
			return changed(path, cur.node.Path)
		}
		visits = append(visits, visit{parent: cur.node.Path, children: kids})

		r.mu.Lock()
		child, ok = r.entries[childPath]
		r.mu.Unlock()
		if !ok {
			return notFound(path, fmt.Errorf("%w: no route %q under %q", domain.ErrNotFound, seg, cur.node.Path))
		}
		cur = child
	}

	return Result{Kind: domain.TargetResolved, Node: cur.node}
}

// ResolveChildren resolves path and evaluates its children mapping, so that they become
// available through Children and the visitor. A Pending result means either the node
// or its children are still being computed.
func (r *Resolver) ResolveChildren(path string) Result {
	res := r.Resolve(path)
	if res.Kind != domain.TargetResolved {
		return res
	}

	r.mu.Lock()
	e, ok := r.entries[res.Node.Path]
	_, mapped := r.children[res.Node.Path]
	r.mu.Unlock()
	if !ok || mapped {
		return res
	}
	p := r.providerOf(e)
	if p == nil {
		return res
	}

	// A failing provider yields NotFound although the node itself stays resolvable.
	failed, m := r.mappingFor(*p, res.Node.Path)
	if failed.Kind != "" {
		return failed
	}
	kids, ok := r.record(e, *p, m)
	if !ok {
		return changed(path, res.Node.Path)
	}
	if r.visit != nil {
		r.visit(res.Node.Path, kids)
	}
	return res
}

// Children returns the resolved children of path, if its mapping was evaluated.
func (r *Resolver) Children(path string) ([]*domain.ResolvedNode, bool) {
	path = navpath.Sanitize(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	ids, ok := r.children[path]
	if !ok {
		return nil, false
	}
	out := make([]*domain.ResolvedNode, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.entries[id]; ok {
			out = append(out, e.node)
		}
	}
	return out, true
}

// Invalidate forgets everything computed below path, including settled async
// computations, so that they are evaluated again.
func (r *Resolver) Invalidate(path string) {
	path = navpath.Sanitize(path)
	r.mu.Lock()
	released := r.invalidateLocked(path)
	r.mu.Unlock()
	for _, s := range released {
		s.release()
	}
}

// Retain releases every reactive subscription that none of the live paths goes through.
func (r *Resolver) Retain(live ...string) {
	for i := range live {
		live[i] = navpath.Sanitize(live[i])
	}

	r.mu.Lock()
	var released []*subscription
	for owner := range r.subs {
		keep := false
		for _, p := range live {
			if navpath.IsWithin(p, owner) {
				keep = true
				break
			}
		}
		if !keep {
			released = append(released, r.invalidateLocked(owner)...)
			if s, ok := r.subs[owner]; ok {
				delete(r.subs, owner)
				s.detachLocked()
				released = append(released, s)
			}
		}
	}
	r.mu.Unlock()

	for _, s := range released {
		r.logger.Debug("releasing reactive routes", "owner", s.owner)
		s.release()
	}
}

// Subscriptions returns the owners of the live reactive subscriptions, sorted.
func (r *Resolver) Subscriptions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.subs))
	for owner := range r.subs {
		out = append(out, owner)
	}
	sort.Strings(out)
	return out
}

// Close releases every subscription, cancels async computations and waits for them.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	subs := make([]*subscription, 0, len(r.subs))
	for owner, s := range r.subs {
		delete(r.subs, owner)
		s.detachLocked()
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		s.release()
	}
	r.cancel()
	r.wg.Wait()
}

type visit struct {
	parent   string
	children []*domain.ResolvedNode
}

func (r *Resolver) providerOf(e *entry) *provider {
	if e.spec.Leaf != nil && *e.spec.Leaf {
		return nil
	}
	if e.spec.Routes.Kind != domain.RoutesNone {
		return &provider{owner: e.node.Path, routes: e.spec.Routes}
	}
	return e.inherited
}

// mapping is a children mapping with the reactive emission it was computed from.
type mapping struct {
	routes   domain.Mapping
	emission uint64
}

// mappingFor returns the children mapping of the node at parent. A non-empty
// Result kind means the mapping is not available (Pending or NotFound).
func (r *Resolver) mappingFor(p provider, parent string) (Result, mapping) {
	var emission uint64
	routes := p.routes
	if routes.Kind == domain.RoutesReactive {
		current, n, wait, err := r.reactive(p.owner, routes.Stream)
		if err != nil {
			return notFound(parent, err), mapping{}
		}
		if current == nil {
			return Result{Kind: domain.TargetPending, Wait: wait}, mapping{}
		}
		routes = *current
		emission = n
	}

	rctx := domain.RouteContext{
		Path:   navpath.Relative(parent, p.owner),
		Base:   p.owner,
		Router: r.navigator,
	}

	var (
		m   domain.Mapping
		err error
	)
	switch routes.Kind {
	case domain.RoutesStatic:
		m = routes.Static
	case domain.RoutesSync:
		m, err = callSync(routes.Sync, rctx)
	case domain.RoutesAsync:
		var wait <-chan struct{}
		m, wait, err = r.awaitAsync(parent, routes.Async, rctx)
		if wait != nil {
			return Result{Kind: domain.TargetPending, Wait: wait}, mapping{}
		}
	default:
		err = fmt.Errorf("%w: unsupported %s routes at %q", domain.ErrNotFound, routes.Kind, p.owner)
	}
	if err == nil {
		err = m.Validate()
	}
	if err != nil {
		r.logger.Warn("routes provider failed", "path", parent, "kind", routes.Kind.String(), "error", err)
		return notFound(parent, err), mapping{}
	}
	return Result{}, mapping{routes: m, emission: emission}
}

// record stores the children of the node e. It reports false when e is not reachable
// anymore (its branch was invalidated meanwhile) or when the reactive provider the
// mapping was computed from emitted again.
func (r *Resolver) record(e *entry, p provider, m mapping) ([]*domain.ResolvedNode, bool) {
	parent := e.node.Path
	var inherited *provider
	if p.routes.IsFunction() {
		inherited = &p
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[parent] != e {
		return nil, false
	}
	if p.routes.Kind == domain.RoutesReactive {
		s, ok := r.subs[p.owner]
		if !ok || s.current == nil || s.emission != m.emission {
			return nil, false
		}
	}
	if ids, ok := r.children[parent]; ok {
		out := make([]*domain.ResolvedNode, 0, len(ids))
		for _, id := range ids {
			out = append(out, r.entries[id].node)
		}
		return out, true
	}

	ids := make([]string, 0, len(m.routes))
	out := make([]*domain.ResolvedNode, 0, len(m.routes))
	for _, route := range m.routes {
		path := navpath.Join(parent, route.Segment)
		e, ok := r.entries[path]
		if !ok {
			spec := route.Node
			e = &entry{
				node: &domain.ResolvedNode{
					Path:   path,
					Name:   spec.Name,
					Header: spec.Header,
					Layout: spec.Layout,
					Leaf:   isLeaf(spec, inherited),
					Spec:   spec,
				},
				spec:      spec,
				inherited: inherited,
			}
			r.entries[path] = e
		}
		ids = append(ids, path)
		out = append(out, e.node)
	}
	r.children[parent] = ids
	return out, true
}

// invalidateLocked drops every cached value computed from providers at or below path.
// The node at path itself is kept. Released subscriptions must be released by the caller
// once the lock is dropped.
func (r *Resolver) invalidateLocked(path string) []*subscription {
	for p := range r.entries {
		if p != path && navpath.IsWithin(p, path) {
			delete(r.entries, p)
		}
	}
	for p := range r.children {
		if navpath.IsWithin(p, path) {
			delete(r.children, p)
		}
	}
	for p := range r.async {
		if navpath.IsWithin(p, path) {
			delete(r.async, p)
		}
	}
	var released []*subscription
	for owner, s := range r.subs {
		if owner != path && navpath.IsWithin(owner, path) {
			delete(r.subs, owner)
			s.detachLocked()
			released = append(released, s)
		}
	}
	return released
}

func isLeaf(n *domain.Node, inherited *provider) bool {
	if n.Leaf != nil {
		return *n.Leaf
	}
	return n.Routes.Kind == domain.RoutesNone && inherited == nil
}

func changed(path, parent string) Result {
	return notFound(path, fmt.Errorf("%w: %q changed during resolution", domain.ErrNotFound, parent))
}

func notFound(path string, err error) Result {
	if !errors.Is(err, domain.ErrNotFound) {
		err = fmt.Errorf("%w: %q: %v", domain.ErrNotFound, path, err)
	}
	return Result{Kind: domain.TargetNotFound, Err: err}
}

func callSync(fn domain.SyncFunc, rctx domain.RouteContext) (m domain.Mapping, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("routes provider panicked: %v", rec)
		}
	}()
	return fn(rctx)
}
