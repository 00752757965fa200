package sitenav

import (
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/ports"
)

// SetScrollable sets the element scroll requests are forwarded to, and scrolls it to the
// current target's section.
func (r *Router) SetScrollable(s ports.Scroller) {
	r.mu.Lock()
	r.scroller = s
	cur := r.current
	r.mu.Unlock()

	if cur.Kind == domain.TargetResolved {
		r.ScrollTo(cur.SectionID)
	}
}

// ScrollTo scrolls to the section with the given id (the top when empty), debounced.
// A successful scroll to a section records it in the browser history.
func (r *Router) ScrollTo(sectionID string) {
	r.scrollDebouncer.Push(sectionID)
}

// ReportScroll records the section currently in view; ScrollPositions publishes it debounced.
func (r *Router) ReportScroll(sectionID string) {
	r.reportDebouncer.Push(sectionID)
}

// EmitContentUpdated signals that the rendered content of the current page changed.
func (r *Router) EmitContentUpdated() {
	r.contentUpdates.Next(r.contentSeq.Inc())
}

func (r *Router) scroll(sectionID string) {
	r.mu.Lock()
	scroller := r.scroller
	cur := r.current
	r.mu.Unlock()

	if scroller == nil {
		return
	}
	if err := scroller.ScrollTo(r.ctx, sectionID); err != nil {
		r.logger.Warn("can not scroll to section", "section", sectionID, "error", err)
		return
	}
	if sectionID == "" || cur.Kind != domain.TargetResolved {
		return
	}

	url := cur.URL()
	url.SectionID = sectionID
	url.Issuer = domain.IssuerScroll
	r.pushHistory(url)
}
