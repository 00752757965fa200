package domain

import "errors"

// ErrNotFound is returned when a path cannot be resolved to a node.
var ErrNotFound = errors.New("navigation node not found")

// ErrNotResolved is returned when explorer data is requested for a node that has not been resolved yet.
// Callers are expected to only ask for nodes they know were resolved.
var ErrNotResolved = errors.New("explorer node not resolved")

// ErrSuperseded is returned by a blocking navigation whose request was replaced by a newer one.
var ErrSuperseded = errors.New("navigation superseded")

// ErrCancelled is returned when a redirect cancelled a navigation.
var ErrCancelled = errors.New("navigation cancelled by redirect")

// ErrRouterClosed is returned when a navigation is requested on a closed router.
var ErrRouterClosed = errors.New("router closed")

// ErrInvalidSegment is returned when a route key is not a valid path segment.
var ErrInvalidSegment = errors.New("invalid route segment")

// ErrHistoryNotFound is returned when no history was saved for a session.
var ErrHistoryNotFound = errors.New("history not found")
