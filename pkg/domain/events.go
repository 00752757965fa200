package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNavigationStart EventType = "navigation_start"
	EventNavigationEnd   EventType = "navigation_end"
	EventRoutesUpdated   EventType = "routes_updated"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NavigationEvent reports a navigation request and, on end, its outcome.
type NavigationEvent struct {
	EventBase
	Path       string        `json:"path"`
	Issuer     Issuer        `json:"issuer,omitempty"`
	Generation uint64        `json:"generation"`
	Outcome    TargetKind    `json:"outcome,omitempty"`
	Superseded bool          `json:"superseded,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// RoutesEvent reports a reactive provider emission.
type RoutesEvent struct {
	EventBase
	Owner         string `json:"owner"`
	Subscriptions int    `json:"subscriptions"`
}

// LifecycleHooks defines callbacks for router observability.
type LifecycleHooks struct {
	OnNavigationStart func(context.Context, *NavigationEvent)
	OnNavigationEnd   func(context.Context, *NavigationEvent)
	OnRoutesUpdated   func(context.Context, *RoutesEvent)
}
