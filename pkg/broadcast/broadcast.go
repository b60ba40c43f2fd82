package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T published under Key.
type Message[T any] struct {
	Key  string
	Data T
}

// Subscriber receives messages for a single key.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns a channel for receiving broadcast messages.
	// The context is kept for interface consistency with networked adapters.
	Receive(ctx context.Context) <-chan Message[T]

	// Close closes the subscriber and releases resources.
	// After Close, the receive channel is closed. Close is idempotent.
	Close() error
}

// Broadcaster fans messages out to the subscribers of their key.
// Implementations must not block on slow consumers.
type Broadcaster[T any] interface {
	// Subscribe creates a subscriber for key. The subscription is removed
	// when ctx is cancelled.
	Subscribe(ctx context.Context, key string) Subscriber[T]

	// Broadcast sends msg to every subscriber of msg.Key.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}

type subscriber[T any] struct {
	key    string
	ch     chan Message[T]
	done   chan struct{}
	closed bool
	mu     sync.Mutex
	onDone func(*subscriber[T])
}

func newSubscriber[T any](key string, bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		key:  key,
		ch:   make(chan Message[T], bufferSize),
		done: make(chan struct{}),
	}
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	close(s.ch)
	close(s.done)
	s.closed = true
	onDone := s.onDone
	s.mu.Unlock()

	if onDone != nil {
		onDone(s)
	}
	return nil
}

// send never blocks. When the buffer is full the oldest queued message is
// discarded so the subscriber always ends up holding the newest value.
func (s *subscriber[T]) send(msg Message[T]) (dropped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return false
	default:
	}

	select {
	case <-s.ch:
		dropped = true
	default:
	}

	select {
	case s.ch <- msg:
	default:
	}
	return dropped
}
