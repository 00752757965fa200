package ports

import (
	"context"

	"github.com/aretw0/sitenav/pkg/domain"
)

// BrowserClient abstracts the address bar and its history.
type BrowserClient interface {
	// ParseURL returns the location currently displayed.
	ParseURL() domain.UrlTarget

	// PushState adds a history entry and displays target.
	PushState(ctx context.Context, target domain.UrlTarget) error

	// PopStates streams the locations restored by back/forward events.
	// The returned func releases the subscription.
	PopStates() (<-chan domain.UrlTarget, func())
}

// Scroller scrolls the rendered page.
type Scroller interface {
	// ScrollTo scrolls to the section heading; an empty id scrolls to the top.
	ScrollTo(ctx context.Context, sectionID string) error
}
