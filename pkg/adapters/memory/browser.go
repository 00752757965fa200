package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/sitenav/internal/logging"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/aretw0/sitenav/pkg/ports"
	"github.com/aretw0/sitenav/pkg/stream"
)

// Browser implements ports.BrowserClient in memory.
// It keeps a history list with a cursor, like a real browser tab, and is the default
// client of a router as well as the fake used by tests.
type Browser struct {
	mu      sync.Mutex
	entries []domain.UrlTarget
	index   int
	pushes  int

	pops *stream.Subject[domain.UrlTarget]

	store     ports.HistoryStore
	sessionID string
	logger    *slog.Logger
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithURL sets the initially displayed location from a URL carrying a "nav" query parameter.
func WithURL(rawURL string) BrowserOption {
	return func(b *Browser) {
		b.entries = []domain.UrlTarget{navpath.ParseURL(rawURL)}
		b.index = 0
	}
}

// WithHistory seeds the history; the last entry is displayed.
func WithHistory(entries ...domain.UrlTarget) BrowserOption {
	return func(b *Browser) {
		if len(entries) == 0 {
			return
		}
		b.entries = append([]domain.UrlTarget{}, entries...)
		b.index = len(entries) - 1
	}
}

// WithStore persists the history of the given session on every change.
func WithStore(store ports.HistoryStore, sessionID string) BrowserOption {
	return func(b *Browser) {
		b.store = store
		b.sessionID = sessionID
	}
}

// WithBrowserLogger sets the logger.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(b *Browser) {
		b.logger = logger
	}
}

// NewBrowser creates a Browser displaying the root.
func NewBrowser(opts ...BrowserOption) *Browser {
	b := &Browser{
		entries: []domain.UrlTarget{{Path: navpath.Root}},
		pops:    stream.NewEventSubject[domain.UrlTarget](),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Restore replaces the history with the one saved for the session, if any.
func (b *Browser) Restore(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	history, err := b.store.Load(ctx, b.sessionID)
	if err != nil {
		return fmt.Errorf("failed to restore history %s: %w", b.sessionID, err)
	}
	if _, ok := history.Current(); !ok {
		return fmt.Errorf("failed to restore history %s: index %d out of range", b.sessionID, history.Index)
	}

	b.mu.Lock()
	b.entries = history.Entries
	b.index = history.Index
	b.mu.Unlock()
	return nil
}

// ParseURL returns the displayed location.
func (b *Browser) ParseURL() domain.UrlTarget {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.entries[b.index]
	t.Issuer = ""
	t.ForceReload = false
	return t
}

// PushState drops the forward entries and appends target.
func (b *Browser) PushState(ctx context.Context, target domain.UrlTarget) error {
	target.Path = navpath.Sanitize(target.Path)
	target.Issuer = ""
	target.ForceReload = false

	b.mu.Lock()
	b.entries = append(b.entries[:b.index+1], target)
	b.index = len(b.entries) - 1
	b.pushes++
	history := b.historyLocked()
	b.mu.Unlock()

	b.logger.Debug("history push", "path", navpath.Format(target), "length", len(history.Entries))
	b.persist(ctx, history)
	return nil
}

// PopStates streams the locations restored by Prev, Next, Go and Dispatch.
func (b *Browser) PopStates() (<-chan domain.UrlTarget, func()) {
	return b.pops.Subscribe()
}

// Go moves the history cursor by delta and fires a popstate. It reports false when out of range.
func (b *Browser) Go(delta int) bool {
	b.mu.Lock()
	next := b.index + delta
	if delta == 0 || next < 0 || next >= len(b.entries) {
		b.mu.Unlock()
		return false
	}
	b.index = next
	target := b.entries[next]
	history := b.historyLocked()
	b.mu.Unlock()

	b.persist(context.Background(), history)
	target.Issuer = domain.IssuerBrowser
	b.pops.Next(target)
	return true
}

// Prev goes one entry back.
func (b *Browser) Prev() bool {
	return b.Go(-1)
}

// Next goes one entry forward.
func (b *Browser) Next() bool {
	return b.Go(1)
}

// HasPrev reports whether there is an entry before the current one.
func (b *Browser) HasPrev() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index > 0
}

// HasNext reports whether there is an entry after the current one.
func (b *Browser) HasNext() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index < len(b.entries)-1
}

// Dispatch fires a popstate for target without touching the history, as a host
// browser does when the page is restored from outside the router.
func (b *Browser) Dispatch(target domain.UrlTarget) {
	target.Issuer = domain.IssuerBrowser
	b.pops.Next(target)
}

// History returns a copy of the history.
func (b *Browser) History() domain.History {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.historyLocked()
}

// Pushes returns the number of PushState calls.
func (b *Browser) Pushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pushes
}

// Close completes the popstate stream.
func (b *Browser) Close() {
	b.pops.Close()
}

func (b *Browser) historyLocked() domain.History {
	return domain.History{Entries: append([]domain.UrlTarget{}, b.entries...), Index: b.index}
}

func (b *Browser) persist(ctx context.Context, history domain.History) {
	if b.store == nil {
		return
	}
	if err := b.store.Save(ctx, b.sessionID, history); err != nil {
		b.logger.Error("failed to persist history", "session_id", b.sessionID, "error", err)
	}
}
