package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHistoryStoreContract runs a suite of tests to verify that a HistoryStore implementation
// adheres to the defined interface contract.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		history := domain.History{
			Entries: []domain.UrlTarget{
				{Path: "/"},
				{Path: "/docs/intro", SectionID: "install"},
				{Path: "/api", Parameters: map[string]string{"theme": "dark"}},
			},
			Index: 1,
		}

		err := store.Save(ctx, sessionID, history)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, history.Index, loaded.Index)
		require.Len(t, loaded.Entries, 3)
		assert.Equal(t, "install", loaded.Entries[1].SectionID)
		assert.Equal(t, "dark", loaded.Entries[2].Parameters["theme"])
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, sessionID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-session")
		assert.ErrorIs(t, err, domain.ErrHistoryNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrHistoryNotFound)

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids, sessionID)
	})
}
