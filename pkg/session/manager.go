package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/sitenav/internal/logging"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to the histories of a store.
// It uses reference counting to garbage collect unused locks.
// Manager itself implements ports.HistoryStore.
type Manager struct {
	store ports.HistoryStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.HistoryStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, and call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry when it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock of the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Load retrieves the history of a session.
func (m *Manager) Load(ctx context.Context, sessionID string) (domain.History, error) {
	var h domain.History
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		h, err = m.store.Load(ctx, sessionID)
		return err
	})
	return h, err
}

// LoadOrStart loads the history of a session, creating one displaying start when none exists.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string, start domain.UrlTarget) (domain.History, error) {
	var h domain.History
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		h, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrHistoryNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		h = domain.History{Entries: []domain.UrlTarget{start}}
		if err := m.store.Save(ctx, sessionID, h); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.logger.Debug("Session started", "session_id", sessionID, "path", start.Path)
		return nil
	})
	return h, err
}

// Update applies fn to the stored history of a session and saves the result atomically.
// A missing history is passed to fn as the zero History.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(domain.History) (domain.History, error)) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		h, err := m.store.Load(ctx, sessionID)
		if err != nil && !errors.Is(err, domain.ErrHistoryNotFound) {
			return err
		}
		h, err = fn(h)
		if err != nil {
			return err
		}
		return m.store.Save(ctx, sessionID, h)
	})
}

// Save persists the history of a session.
func (m *Manager) Save(ctx context.Context, sessionID string, history domain.History) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, history)
	})
}

// Delete removes the history of a session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying history store.
func (m *Manager) Store() ports.HistoryStore {
	return m.store
}
