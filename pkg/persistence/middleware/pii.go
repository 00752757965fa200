package middleware

import (
	"context"
	"maps"
	"regexp"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/ports"
)

// Mask replaces the value of a sensitive parameter.
const Mask = "***"

type piiMiddleware struct {
	next     ports.HistoryStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the values of query parameters whose
// key matches one of the patterns (e.g. access tokens carried in shared links).
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, history domain.History) error {
	// Entries are shared with the live browser; mask copies.
	masked := domain.History{
		Entries: make([]domain.UrlTarget, len(history.Entries)),
		Index:   history.Index,
	}
	for i, entry := range history.Entries {
		if entry.Parameters != nil {
			entry.Parameters = maps.Clone(entry.Parameters)
			m.mask(entry.Parameters)
		}
		masked.Entries[i] = entry
	}
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (domain.History, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(params map[string]string) {
	for k := range params {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				params[k] = Mask
				break
			}
		}
	}
}
