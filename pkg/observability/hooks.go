package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/sitenav/pkg/domain"
)

// LoggingHooks logs every lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNavigationStart: func(ctx context.Context, e *domain.NavigationEvent) {
			logger.DebugContext(ctx, "navigation_start",
				"path", e.Path,
				"issuer", string(e.Issuer),
				"generation", e.Generation,
			)
		},
		OnNavigationEnd: func(ctx context.Context, e *domain.NavigationEvent) {
			logger.InfoContext(ctx, "navigation_end",
				"path", e.Path,
				"outcome", string(e.Outcome),
				"superseded", e.Superseded,
				"duration", e.Duration,
			)
		},
		OnRoutesUpdated: func(ctx context.Context, e *domain.RoutesEvent) {
			logger.InfoContext(ctx, "routes_updated", "owner", e.Owner, "subscriptions", e.Subscriptions)
		},
	}
}

// Combine returns hooks calling each of the given hooks in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hooks {
		if h.OnNavigationStart != nil {
			prev, next := out.OnNavigationStart, h.OnNavigationStart
			out.OnNavigationStart = func(ctx context.Context, e *domain.NavigationEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnNavigationEnd != nil {
			prev, next := out.OnNavigationEnd, h.OnNavigationEnd
			out.OnNavigationEnd = func(ctx context.Context, e *domain.NavigationEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnRoutesUpdated != nil {
			prev, next := out.OnRoutesUpdated, h.OnRoutesUpdated
			out.OnRoutesUpdated = func(ctx context.Context, e *domain.RoutesEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
	}
	return out
}
