package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/sitenav/pkg/domain"
)

// subscription is the resolver's ownership of a reactive stream.
// It is released when no live path goes through its owner anymore.
type subscription struct {
	owner  string
	cancel func()
	done   chan struct{}
	once   sync.Once

	// Guarded by Resolver.mu.
	current *domain.Routes
	// emission counts the values received; mappings computed from an older value are stale.
	emission uint64
	ready    chan struct{}
	ended    bool
}

// detachLocked wakes the waiters of a subscription that never emitted, so that they
// resolve again against the resolver's current state.
func (s *subscription) detachLocked() {
	if s.current == nil && !s.ended {
		s.ended = true
		close(s.ready)
	}
}

func (s *subscription) release() {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
	})
}

// reactive returns the latest routes emitted for owner and their emission number,
// subscribing on first use. A nil routes with a nil error means nothing was emitted yet;
// wait is closed on first emission.
func (r *Resolver) reactive(owner string, stream domain.ResolverStream) (*domain.Routes, uint64, <-chan struct{}, error) {
	if stream == nil {
		return nil, 0, nil, fmt.Errorf("%w: reactive routes without stream at %q", domain.ErrNotFound, owner)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[owner]
	if !ok {
		if r.closed {
			return nil, 0, nil, domain.ErrRouterClosed
		}
		ch, cancel := stream.Subscribe()
		s = &subscription{
			owner:  owner,
			cancel: cancel,
			done:   make(chan struct{}),
			ready:  make(chan struct{}),
		}
		r.subs[owner] = s
		r.wg.Add(1)
		go r.consume(s, ch)
		r.logger.Debug("subscribed to reactive routes", "owner", owner)
	}

	switch {
	case s.current != nil:
		return s.current, s.emission, nil, nil
	case s.ended:
		return nil, 0, nil, fmt.Errorf("%w: reactive routes at %q ended without a value", domain.ErrNotFound, owner)
	default:
		return nil, 0, s.ready, nil
	}
}

func (r *Resolver) consume(s *subscription, ch <-chan domain.Routes) {
	defer r.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case routes, ok := <-ch:
			if !ok {
				r.mu.Lock()
				if s.current == nil && !s.ended {
					s.ended = true
					close(s.ready)
				}
				r.mu.Unlock()
				return
			}
			r.emit(s, routes)
		}
	}
}

func (r *Resolver) emit(s *subscription, routes domain.Routes) {
	if routes.Kind == domain.RoutesReactive {
		r.logger.Warn("reactive routes emitted a reactive provider, ignoring", "owner", s.owner)
		return
	}

	r.mu.Lock()
	if r.subs[s.owner] != s {
		r.mu.Unlock()
		return
	}
	first := s.current == nil
	s.current = &routes
	s.emission++
	var released []*subscription
	if first {
		close(s.ready)
	} else {
		released = r.invalidateLocked(s.owner)
	}
	r.mu.Unlock()

	for _, nested := range released {
		nested.release()
	}
	if first {
		return
	}

	r.logger.Debug("reactive routes updated", "owner", s.owner, "released", len(released))
	if r.onUpdate != nil {
		r.onUpdate(s.owner)
	}
}

// Context returns the context bound to the resolver lifetime.
func (r *Resolver) Context() context.Context {
	return r.ctx
}
