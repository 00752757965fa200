package sitenav

import (
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
)

// SetCompanions sets the pages displayed alongside the current target (e.g. side panels).
// Their nodes are resolved in the background and their reactive subscriptions are kept alive.
func (r *Router) SetCompanions(paths []string) {
	companions := make([]string, 0, len(paths))
	for _, p := range paths {
		companions = append(companions, navpath.Sanitize(p))
	}

	r.mu.Lock()
	r.companions = companions
	cur := r.current
	r.mu.Unlock()

	r.companionsStream.Next(append([]string{}, companions...))
	for _, p := range companions {
		p := p
		r.goBackground(func() {
			if _, err := r.GetNav(r.ctx, domain.UrlTarget{Path: p}); err != nil {
				r.logger.Warn("failed to resolve companion", "path", p, "error", err)
			}
		})
	}

	live := append([]string{}, companions...)
	if cur.Path != "" {
		live = append(live, cur.Path)
	}
	r.resolver.Retain(live...)
}

// Companions streams the companion paths.
func (r *Router) Companions() (<-chan []string, func()) {
	return r.companionsStream.Subscribe()
}
