package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/sitenav/pkg/domain"
)

// Store implements ports.HistoryStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.History
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.History),
	}
}

// Save persists the history in memory.
func (s *Store) Save(ctx context.Context, sessionID string, history domain.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copyHistory(history)
	return nil
}

// Load retrieves the history from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (domain.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[sessionID]
	if !ok {
		return domain.History{}, domain.ErrHistoryNotFound
	}
	// Copy on read so callers can't mutate the store through shared slices.
	return copyHistory(history), nil
}

// Delete removes the history.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the stored session IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func copyHistory(h domain.History) domain.History {
	out := domain.History{Index: h.Index, Entries: make([]domain.UrlTarget, len(h.Entries))}
	for i, e := range h.Entries {
		if e.Parameters != nil {
			params := make(map[string]string, len(e.Parameters))
			for k, v := range e.Parameters {
				params[k] = v
			}
			e.Parameters = params
		}
		out.Entries[i] = e
	}
	return out
}
