package sitenav

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/sitenav/internal/resolver"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
)

// pushTimeout bounds a history push on remote browser clients.
const pushTimeout = 5 * time.Second

type outcome struct {
	target domain.Target
	err    error
}

// NavigateTo navigates to target and waits for its terminal target (Resolved or NotFound)
// to be published. It returns domain.ErrSuperseded when a newer navigation was requested
// meanwhile, and domain.ErrCancelled when a redirect cancelled it.
// Cancelling ctx stops the wait, not the navigation.
func (r *Router) NavigateTo(ctx context.Context, target domain.UrlTarget) (domain.Target, error) {
	if target.Issuer == "" {
		target.Issuer = domain.IssuerNavigation
	}
	done := r.start(target)
	select {
	case o := <-done:
		return o.target, o.err
	case <-ctx.Done():
		return domain.Target{}, ctx.Err()
	}
}

// FireNavigateTo requests a navigation without waiting for it.
func (r *Router) FireNavigateTo(target domain.UrlTarget) {
	if target.Issuer == "" {
		target.Issuer = domain.IssuerNavigation
	}
	r.start(target)
}

// Navigate parses raw ("<path>[.<sectionId>]") and navigates to it.
func (r *Router) Navigate(ctx context.Context, raw string) (domain.Target, error) {
	return r.NavigateTo(ctx, navpath.Parse(raw))
}

// GetNav resolves target without publishing anything. It waits while the node is pending
// and returns an error wrapping domain.ErrNotFound when it does not exist.
func (r *Router) GetNav(ctx context.Context, target domain.UrlTarget) (*domain.ResolvedNode, error) {
	res, err := r.await(ctx, func() resolver.Result { return r.resolver.Resolve(target.Path) })
	if err != nil {
		return nil, err
	}
	if res.Kind == domain.TargetNotFound {
		return nil, res.Err
	}
	return res.Node, nil
}

// Expand expands id in the explorer and waits until its children are resolved.
func (r *Router) Expand(ctx context.Context, id string) error {
	r.explorer.Expand(id)
	return r.awaitChildren(ctx, id)
}

// Invalidate drops everything resolved below path. The current target is reloaded when
// it lies within path.
func (r *Router) Invalidate(path string) {
	path = navpath.Sanitize(path)
	r.resolver.Invalidate(path)
	r.explorer.Invalidate(path)

	cur := r.Current()
	if cur.IsTerminal() && navpath.IsWithin(cur.Path, path) {
		reload := cur.URL()
		reload.ForceReload = true
		reload.Issuer = domain.IssuerNavigation
		r.FireNavigateTo(reload)
	}
}

func (r *Router) awaitChildren(ctx context.Context, id string) error {
	res, err := r.await(ctx, func() resolver.Result { return r.resolver.ResolveChildren(id) })
	if err != nil {
		return err
	}
	if res.Kind == domain.TargetNotFound {
		return res.Err
	}
	return nil
}

// await polls resolve until it is not pending.
func (r *Router) await(ctx context.Context, resolve func() resolver.Result) (resolver.Result, error) {
	var retry <-chan time.Time
	if r.retryPeriod > 0 {
		ticker := time.NewTicker(r.retryPeriod)
		defer ticker.Stop()
		retry = ticker.C
	}
	for {
		res := resolve()
		if res.Kind != domain.TargetPending {
			return res, nil
		}
		select {
		case <-res.Wait:
		case <-retry:
		case <-ctx.Done():
			return res, ctx.Err()
		case <-r.ctx.Done():
			return res, domain.ErrRouterClosed
		}
	}
}

// start registers a new navigation request, superseding the previous one.
func (r *Router) start(target domain.UrlTarget) <-chan outcome {
	done := make(chan outcome, 1)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		done <- outcome{err: domain.ErrRouterClosed}
		return done
	}
	gen := r.gen.Inc()
	close(r.supersede)
	r.supersede = make(chan struct{})
	superseded := r.supersede
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		t, err := r.navigate(gen, superseded, target)
		done <- outcome{target: t, err: err}
	}()
	return done
}

func (r *Router) navigate(gen uint64, superseded <-chan struct{}, target domain.UrlTarget) (domain.Target, error) {
	started := time.Now()
	target.Path = navpath.Sanitize(target.Path)
	r.logger.Debug("navigation requested", "path", navpath.Format(target), "issuer", string(target.Issuer), "generation", gen)

	if r.hooks.OnNavigationStart != nil {
		r.hooks.OnNavigationStart(r.ctx, &domain.NavigationEvent{
			EventBase:  domain.EventBase{Timestamp: started, Type: domain.EventNavigationStart},
			Path:       target.Path,
			Issuer:     target.Issuer,
			Generation: gen,
		})
	}

	t, err := r.run(gen, superseded, target)

	if r.hooks.OnNavigationEnd != nil {
		r.hooks.OnNavigationEnd(r.ctx, &domain.NavigationEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventNavigationEnd},
			Path:       target.Path,
			Issuer:     target.Issuer,
			Generation: gen,
			Outcome:    t.Kind,
			Superseded: errors.Is(err, domain.ErrSuperseded),
			Duration:   time.Since(started),
		})
	}
	return t, err
}

func (r *Router) run(gen uint64, superseded <-chan struct{}, target domain.UrlTarget) (domain.Target, error) {
	target, ok := r.applyRedirects(target)
	if !ok {
		r.logger.Info("redirect cancelled navigation", "path", target.Path)
		return domain.Target{}, domain.ErrCancelled
	}

	var retry <-chan time.Time
	if r.retryPeriod > 0 {
		ticker := time.NewTicker(r.retryPeriod)
		defer ticker.Stop()
		retry = ticker.C
	}

	for attempt := 1; ; attempt++ {
		res := r.resolver.Resolve(target.Path)
		t := targetFor(gen, target, res)
		if res.Kind != domain.TargetPending {
			if !r.commit(gen, t) {
				if r.ctx.Err() != nil {
					return domain.Target{}, domain.ErrRouterClosed
				}
				return domain.Target{}, domain.ErrSuperseded
			}
			if res.Kind == domain.TargetNotFound {
				r.logger.Debug("navigation target not found", "path", target.Path, "error", res.Err)
			}
			return t, nil
		}

		r.publishPending(gen, t)
		select {
		case <-res.Wait:
		case <-retry:
			r.logger.Debug("navigation still pending, retrying", "path", target.Path, "attempt", attempt)
		case <-r.ctx.Done():
			return domain.Target{}, domain.ErrRouterClosed
		case <-superseded:
			if r.ctx.Err() != nil {
				return domain.Target{}, domain.ErrRouterClosed
			}
			return domain.Target{}, domain.ErrSuperseded
		}
	}
}

func (r *Router) applyRedirects(target domain.UrlTarget) (domain.UrlTarget, bool) {
	for i, redirect := range r.redirects {
		next, ok := redirect(r.ctx, target)
		if !ok {
			return target, false
		}
		next.Path = navpath.Sanitize(next.Path)
		if next.Issuer == "" {
			next.Issuer = target.Issuer
		}
		if next.Path != target.Path {
			r.logger.Debug("navigation redirected", "index", i, "from", target.Path, "to", next.Path)
		}
		target = next
	}
	return target, true
}

func targetFor(gen uint64, target domain.UrlTarget, res resolver.Result) domain.Target {
	t := domain.Target{
		Kind:        res.Kind,
		Path:        target.Path,
		SectionID:   target.SectionID,
		Parameters:  target.Parameters,
		Issuer:      target.Issuer,
		ForceReload: target.ForceReload,
		Generation:  gen,
	}
	switch res.Kind {
	case domain.TargetResolved:
		t.Node = res.Node
	case domain.TargetPending:
		t.Reason = string(domain.TargetPending)
	case domain.TargetNotFound:
		t.Reason = string(domain.TargetNotFound)
	}
	return t
}

// publishPending publishes a Pending target once per request, if it is still the latest.
func (r *Router) publishPending(gen uint64, t domain.Target) {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	r.mu.Lock()
	if gen != r.gen.Load() || (r.current.Kind == domain.TargetPending && r.current.Generation == gen) {
		r.mu.Unlock()
		return
	}
	r.current = t
	r.mu.Unlock()

	r.targets.Next(t)
}

// commit publishes a terminal target if it is still the latest request, then syncs
// the explorer, the history and the reactive subscriptions with it.
func (r *Router) commit(gen uint64, t domain.Target) bool {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	r.mu.Lock()
	if gen != r.gen.Load() || r.closed {
		r.mu.Unlock()
		return false
	}
	r.current = t
	live := append([]string{t.Path}, r.companions...)
	r.mu.Unlock()

	r.targets.Next(t)
	if t.Kind == domain.TargetResolved {
		r.paths.Next(t.Path)
		if err := r.explorer.Select(t.Path); err != nil {
			r.logger.Warn("failed to select explorer node", "path", t.Path, "error", err)
		}
		r.pushHistory(t.URL())
		r.scrollDebouncer.Push(t.SectionID)
	}
	r.resolver.Retain(live...)

	r.logger.Debug("navigation committed", "path", t.Path, "kind", string(t.Kind), "generation", gen)
	return true
}

// pushHistory pushes url to the browser unless the browser issued it, it is already
// displayed, or it is within an ignored path.
func (r *Router) pushHistory(url domain.UrlTarget) {
	if url.Issuer == domain.IssuerBrowser {
		return
	}
	for _, ignored := range r.ignored {
		if navpath.IsWithin(url.Path, ignored) {
			return
		}
	}
	if r.browser.ParseURL().SameLocation(url) {
		return
	}

	ctx, cancel := context.WithTimeout(r.ctx, pushTimeout)
	defer cancel()
	if err := r.browser.PushState(ctx, url); err != nil {
		r.logger.Error("failed to push history", "path", navpath.Format(url), "error", fmt.Errorf("push state: %w", err))
	}
}
