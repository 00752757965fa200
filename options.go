package sitenav

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/aretw0/sitenav/pkg/ports"
)

const (
	// DefaultScrollingDebounce is the quiet period before a scroll request is executed.
	DefaultScrollingDebounce = 100 * time.Millisecond
	// DefaultRetryPeriod is the period pending navigations re-attempt resolution at.
	DefaultRetryPeriod = time.Second
)

// Redirect may rewrite a navigation request before it is resolved.
// Returning false cancels the navigation.
type Redirect func(ctx context.Context, target domain.UrlTarget) (domain.UrlTarget, bool)

// Option defines a functional option for configuring the Router.
type Option func(*Router)

// WithBrowserClient sets the address bar the router keeps in sync.
// The client is created by the caller: it usually needs the router's lifetime only
// through PopStates, which the router subscribes to and releases itself.
// Defaults to an in-memory browser displaying the root.
func WithBrowserClient(client ports.BrowserClient) Option {
	return func(r *Router) {
		r.browser = client
	}
}

// WithScroller sets the element scroll requests are forwarded to.
func WithScroller(s ports.Scroller) Option {
	return func(r *Router) {
		r.scroller = s
	}
}

// WithLogger sets a custom structured logger for the router.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Router) {
		r.hooks = hooks
	}
}

// WithScrollingDebounce sets the scroll debounce period. Zero scrolls synchronously.
func WithScrollingDebounce(d time.Duration) Option {
	return func(r *Router) {
		r.scrollDebounce = d
	}
}

// WithRetryPeriod sets the period pending navigations re-attempt resolution at.
// Zero disables retries: pending navigations only progress on provider signals.
func WithRetryPeriod(d time.Duration) Option {
	return func(r *Router) {
		r.retryPeriod = d
	}
}

// WithIgnoredPaths excludes paths, and everything below them, from the browser history.
func WithIgnoredPaths(paths ...string) Option {
	return func(r *Router) {
		for _, p := range paths {
			r.ignored = append(r.ignored, navpath.Sanitize(p))
		}
	}
}

// WithRedirects registers redirects, applied in order.
func WithRedirects(redirects ...Redirect) Option {
	return func(r *Router) {
		r.redirects = append(r.redirects, redirects...)
	}
}

// WithPathAliases registers "@nav[alias]" link aliases. Values are "@nav/..." paths or
// external http(s) URLs.
func WithPathAliases(aliases map[string]string) Option {
	return func(r *Router) {
		for k, v := range aliases {
			r.aliases[k] = v
		}
	}
}

// WithInitialNavigation controls whether New navigates to the browser's location (default true).
func WithInitialNavigation(enabled bool) Option {
	return func(r *Router) {
		r.initialNav = enabled
	}
}
