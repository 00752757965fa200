package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/aretw0/sitenav/pkg/ports"
)

// ListSessions prints the persisted browser sessions and their current location.
func ListSessions(ctx context.Context, store ports.HistoryStore, out io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		printSystemMessage(out, "No sessions found.")
		return nil
	}

	for _, id := range ids {
		history, err := store.Load(ctx, id)
		if errors.Is(err, domain.ErrHistoryNotFound) {
			// Expired between List and Load.
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load session %s: %w", id, err)
		}
		location := "-"
		if current, ok := history.Current(); ok {
			location = navpath.Format(current)
		}
		fmt.Fprintf(out, "%s\t%s\t(%d entries)\n", id, location, len(history.Entries))
	}
	return nil
}

// ShowSession prints every entry of a persisted history, marking the current one.
func ShowSession(ctx context.Context, store ports.HistoryStore, id string, out io.Writer) error {
	history, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}
	for i, entry := range history.Entries {
		marker := " "
		if i == history.Index {
			marker = ">"
		}
		fmt.Fprintf(out, "%s %s\t%s\n", marker, navpath.Format(entry), entry.Issuer)
	}
	return nil
}

// ResetSession clears the history saved for the session.
func ResetSession(ctx context.Context, store ports.HistoryStore, id string) error {
	if id == "" {
		id = PrimarySession
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to reset session %s: %w", id, err)
	}
	return nil
}
