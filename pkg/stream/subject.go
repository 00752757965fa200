package stream

import "sync"

// Subject holds a value and multicasts every update to its subscribers.
// New subscribers immediately receive the latest value, if any.
type Subject[T any] struct {
	mu          sync.RWMutex
	value       T
	hasValue    bool
	replay      bool
	closed      bool
	subscribers map[chan T]struct{}
}

// NewSubject creates a Subject without an initial value.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{
		replay:      true,
		subscribers: make(map[chan T]struct{}),
	}
}

// NewEventSubject creates a Subject that does not replay: subscribers only
// receive values published after they subscribed.
func NewEventSubject[T any]() *Subject[T] {
	s := NewSubject[T]()
	s.replay = false
	return s
}

// NewBehaviorSubject creates a Subject seeded with initial.
func NewBehaviorSubject[T any](initial T) *Subject[T] {
	s := NewSubject[T]()
	s.value = initial
	s.hasValue = true
	return s
}

// Subscribe returns a channel of values and a func releasing the subscription.
// The channel is closed on release or when the subject is closed.
func (s *Subject[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, 1)
	if s.replay && s.hasValue {
		ch <- s.value
	}
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
}

// Next publishes v to every subscriber. It is a no-op once the subject is closed.
func (s *Subject[T]) Next(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.value = v
	s.hasValue = true
	for ch := range s.subscribers {
		offer(ch, v)
	}
}

// Value returns the latest value and whether one was ever published.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.hasValue
}

// Subscribers returns the number of live subscriptions.
func (s *Subject[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Close completes the subject: every subscriber channel is closed.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// offer replaces a pending unread value with v. Callers hold the subject lock,
// so they are the only sender on ch.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
