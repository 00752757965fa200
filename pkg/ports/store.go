package ports

import (
	"context"

	"github.com/aretw0/sitenav/pkg/domain"
)

// HistoryStore persists browser histories.
// This allows a browser session to survive restarts of the serving process.
type HistoryStore interface {
	// Save persists the history for a given session ID.
	Save(ctx context.Context, sessionID string, history domain.History) error

	// Load retrieves the history for a given session ID.
	// Returns domain.ErrHistoryNotFound if nothing was saved.
	Load(ctx context.Context, sessionID string) (domain.History, error)

	// Delete removes the history for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}

// NavigationSource loads a navigation definition.
type NavigationSource interface {
	Load(ctx context.Context) (*domain.Node, error)
}
