package resolver

import (
	"fmt"

	"github.com/aretw0/sitenav/pkg/domain"
)

// asyncEntry is one launched asynchronous children computation.
type asyncEntry struct {
	done    chan struct{}
	mapping domain.Mapping
	err     error
}

// awaitAsync returns the settled mapping of the computation for parent, launching it
// on first use. A non-nil wait channel means the computation is still running.
func (r *Resolver) awaitAsync(parent string, fn domain.AsyncFunc, rctx domain.RouteContext) (domain.Mapping, <-chan struct{}, error) {
	r.mu.Lock()
	e, ok := r.async[parent]
	if !ok {
		if r.closed {
			r.mu.Unlock()
			return nil, nil, domain.ErrRouterClosed
		}
		e = &asyncEntry{done: make(chan struct{})}
		r.async[parent] = e
		r.wg.Add(1)
		go r.runAsync(e, fn, rctx)
	}
	r.mu.Unlock()

	select {
	case <-e.done:
		return e.mapping, nil, e.err
	default:
		return nil, e.done, nil
	}
}

func (r *Resolver) runAsync(e *asyncEntry, fn domain.AsyncFunc, rctx domain.RouteContext) {
	defer r.wg.Done()
	defer close(e.done)
	defer func() {
		if rec := recover(); rec != nil {
			e.mapping, e.err = nil, fmt.Errorf("routes provider panicked: %v", rec)
		}
	}()

	e.mapping, e.err = fn(r.ctx, rctx)
	if e.err == nil && r.ctx.Err() != nil {
		e.err = r.ctx.Err()
	}
}
