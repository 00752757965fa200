package sitenav

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/sitenav/internal/logging"
	"github.com/aretw0/sitenav/internal/resolver"
	"github.com/aretw0/sitenav/pkg/adapters/memory"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/explorer"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/aretw0/sitenav/pkg/ports"
	"github.com/aretw0/sitenav/pkg/stream"
	"go.uber.org/atomic"
)

// Router is the high-level entry point of the library.
// It resolves navigation requests against a navigation definition, publishes the
// resulting targets and keeps the browser history and the explorer state in sync.
type Router struct {
	nav      *domain.Node
	resolver *resolver.Resolver
	explorer *explorer.State
	browser  ports.BrowserClient
	logger   *slog.Logger
	hooks    domain.LifecycleHooks

	scrollDebounce time.Duration
	retryPeriod    time.Duration
	ignored        []string
	redirects      []Redirect
	aliases        map[string]string
	initialNav     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// gen identifies the latest navigation request; only it may publish.
	gen atomic.Uint64

	mu         sync.Mutex
	closed     bool
	current    domain.Target
	supersede  chan struct{}
	scroller   ports.Scroller
	companions []string

	// commitMu serializes publication and its side effects (explorer, history).
	commitMu sync.Mutex

	targets          *stream.Subject[domain.Target]
	paths            *stream.Subject[string]
	companionsStream *stream.Subject[[]string]
	updates          *stream.Subject[string]
	scrollReports    *stream.Subject[string]
	contentUpdates   *stream.Subject[uint64]
	contentSeq       atomic.Uint64

	scrollDebouncer *stream.Debouncer[string]
	reportDebouncer *stream.Debouncer[string]
	popCancel       func()
}

// New creates a Router for the navigation rooted at nav.
// Unless disabled with WithInitialNavigation, it immediately navigates to the browser's location.
func New(nav *domain.Node, opts ...Option) (*Router, error) {
	if nav == nil {
		return nil, errors.New("navigation root is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		nav:              nav,
		logger:           logging.NewNop(),
		scrollDebounce:   DefaultScrollingDebounce,
		retryPeriod:      DefaultRetryPeriod,
		aliases:          make(map[string]string),
		initialNav:       true,
		ctx:              ctx,
		cancel:           cancel,
		supersede:        make(chan struct{}),
		targets:          stream.NewSubject[domain.Target](),
		paths:            stream.NewSubject[string](),
		companionsStream: stream.NewBehaviorSubject([]string{}),
		updates:          stream.NewEventSubject[string](),
		scrollReports:    stream.NewSubject[string](),
		contentUpdates:   stream.NewEventSubject[uint64](),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.browser == nil {
		r.browser = memory.NewBrowser(memory.WithBrowserLogger(r.logger))
	}

	r.resolver = resolver.New(nav,
		resolver.WithNavigator(r),
		resolver.WithLogger(r.logger),
		resolver.WithVisitor(r.onVisit),
		resolver.WithUpdateHandler(r.onRoutesUpdated),
	)
	root := r.resolver.Resolve(navpath.Root)
	r.explorer = explorer.New(root.Node)

	r.scrollDebouncer = stream.NewDebouncer(r.scrollDebounce, r.scroll)
	r.reportDebouncer = stream.NewDebouncer(r.scrollDebounce, r.scrollReports.Next)

	pops, popCancel := r.browser.PopStates()
	r.popCancel = popCancel
	r.wg.Add(1)
	go r.consumePopStates(pops)

	if r.initialNav {
		initial := r.browser.ParseURL()
		initial.Issuer = domain.IssuerBrowser
		r.FireNavigateTo(initial)
	}
	return r, nil
}

// Targets streams the published targets (target$). New subscribers receive the latest one.
func (r *Router) Targets() (<-chan domain.Target, func()) {
	return r.targets.Subscribe()
}

// Paths streams the path of every resolved target (path$).
func (r *Router) Paths() (<-chan string, func()) {
	return r.paths.Subscribe()
}

// Updates streams the owner path of every reactive provider that emitted new routes.
func (r *Router) Updates() (<-chan string, func()) {
	return r.updates.Subscribe()
}

// ScrollPositions streams the debounced section ids reported with ReportScroll.
func (r *Router) ScrollPositions() (<-chan string, func()) {
	return r.scrollReports.Subscribe()
}

// ContentUpdates streams a sequence number for every EmitContentUpdated call.
func (r *Router) ContentUpdates() (<-chan uint64, func()) {
	return r.contentUpdates.Subscribe()
}

// Current returns the latest published target.
func (r *Router) Current() domain.Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// ParseURL returns the browser's current location.
func (r *Router) ParseURL() domain.UrlTarget {
	return r.browser.ParseURL()
}

// BrowserClient returns the browser client the router is bound to.
func (r *Router) BrowserClient() ports.BrowserClient {
	return r.browser
}

// Explorer returns the explorer state.
func (r *Router) Explorer() *explorer.State {
	return r.explorer
}

// Navigation returns the navigation definition root.
func (r *Router) Navigation() *domain.Node {
	return r.nav
}

// Subscriptions returns the owners of the live reactive subscriptions.
func (r *Router) Subscriptions() []string {
	return r.resolver.Subscriptions()
}

// ResolveHRef rewrites "@nav" links using the registered path aliases.
func (r *Router) ResolveHRef(href string) string {
	return navpath.ResolveHRef(href, r.aliases)
}

// Siblings returns the pages before and after the current target in reading order.
func (r *Router) Siblings() (prev, next *explorer.Node) {
	cur := r.Current()
	if cur.Kind != domain.TargetResolved {
		return nil, nil
	}
	return r.explorer.Siblings(cur.Path)
}

// Close releases every reactive subscription, stops background work and completes the streams.
func (r *Router) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.supersede)
	r.mu.Unlock()

	r.cancel()
	r.popCancel()
	r.scrollDebouncer.Stop()
	r.reportDebouncer.Stop()
	r.resolver.Close()
	r.wg.Wait()

	r.targets.Close()
	r.paths.Close()
	r.companionsStream.Close()
	r.updates.Close()
	r.scrollReports.Close()
	r.contentUpdates.Close()
	r.explorer.Close()
	r.logger.Debug("router closed")
	return nil
}

func (r *Router) consumePopStates(pops <-chan domain.UrlTarget) {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case target, ok := <-pops:
			if !ok {
				return
			}
			target.Issuer = domain.IssuerBrowser
			r.logger.Debug("popstate", "path", navpath.Format(target))
			r.FireNavigateTo(target)
		}
	}
}

func (r *Router) onVisit(parent string, children []*domain.ResolvedNode) {
	r.explorer.Record(parent, children)
}

func (r *Router) onRoutesUpdated(owner string) {
	r.explorer.Invalidate(owner)
	r.updates.Next(owner)
	if r.hooks.OnRoutesUpdated != nil {
		r.hooks.OnRoutesUpdated(r.ctx, &domain.RoutesEvent{
			EventBase:     domain.EventBase{Timestamp: time.Now(), Type: domain.EventRoutesUpdated},
			Owner:         owner,
			Subscriptions: len(r.resolver.Subscriptions()),
		})
	}

	cur := r.Current()
	if cur.IsTerminal() && navpath.IsWithin(cur.Path, owner) {
		r.logger.Info("routes of current target replaced, reloading", "owner", owner, "path", cur.Path)
		reload := cur.URL()
		reload.ForceReload = true
		reload.Issuer = domain.IssuerNavigation
		r.FireNavigateTo(reload)
		return
	}

	// Keep the explorer showing the branch when it is expanded.
	if r.explorer.IsExpanded(owner) {
		r.goBackground(func() { r.awaitChildren(r.ctx, owner) })
	}
}

// goBackground runs fn on a router goroutine unless the router is closed.
func (r *Router) goBackground(fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
	return true
}
