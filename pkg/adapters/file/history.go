package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/sitenav/pkg/domain"
)

// DefaultHistoryDir is where HistoryStore keeps sessions when no directory is given.
var DefaultHistoryDir = filepath.Join(".sitenav", "history")

// HistoryStore implements ports.HistoryStore on the local filesystem,
// one JSON file per session.
type HistoryStore struct {
	BasePath string
}

// NewHistoryStore creates a HistoryStore rooted at basePath (DefaultHistoryDir when empty).
func NewHistoryStore(basePath string) *HistoryStore {
	if basePath == "" {
		basePath = DefaultHistoryDir
	}
	return &HistoryStore{BasePath: basePath}
}

func (s *HistoryStore) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id cannot be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.BasePath, sessionID+".json"), nil
}

// Save writes the history to a temporary file, syncs it and renames it over the session file.
func (s *HistoryStore) Save(_ context.Context, sessionID string, history domain.History) error {
	dest, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure history directory: %w", err)
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+sessionID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows cannot rename over an existing file either.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace history file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename history file: %w", err)
	}
	return nil
}

// Load reads the history of a session.
func (s *HistoryStore) Load(_ context.Context, sessionID string) (domain.History, error) {
	p, err := s.path(sessionID)
	if err != nil {
		return domain.History{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.History{}, fmt.Errorf("%w: %s", domain.ErrHistoryNotFound, sessionID)
		}
		return domain.History{}, fmt.Errorf("failed to read history file: %w", err)
	}

	var h domain.History
	if err := json.Unmarshal(data, &h); err != nil {
		return domain.History{}, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return h, nil
}

// Delete removes the session file. Deleting a missing session is not an error.
func (s *HistoryStore) Delete(_ context.Context, sessionID string) error {
	p, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete history file: %w", err)
	}
	return nil
}

// List returns the stored session IDs.
func (s *HistoryStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list histories: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}
	return sessions, nil
}
