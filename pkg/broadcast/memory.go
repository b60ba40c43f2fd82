package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryBroadcaster is an in-process keyed broadcaster.
// Slow consumers never block Broadcast: a full subscriber buffer loses its
// oldest message instead, so every subscriber converges on the latest value
// of its key. All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	topics     map[string]map[*subscriber[T]]struct{}
	bufferSize int
	closed     bool
	mu         sync.RWMutex
	cleanupWg  sync.WaitGroup // tracks context watchers
	dropped    atomic.Uint64
}

// NewMemoryBroadcaster creates a new in-memory broadcaster.
// The bufferSize parameter determines the channel buffer size for each
// subscriber; a minimum of 1 is enforced.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		topics:     make(map[string]map[*subscriber[T]]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe creates a subscriber for key.
// If the broadcaster is already closed, returns a closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context, key string) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](key, b.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}

	sub.onDone = b.unsubscribe
	if b.topics[key] == nil {
		b.topics[key] = make(map[*subscriber[T]]struct{})
	}
	b.topics[key][sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
				_ = sub.Close()
			case <-sub.done:
			}
		}()
	}

	return sub
}

// Broadcast sends msg to all subscribers of msg.Key.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBroadcasterClosed
	}

	for sub := range b.topics[msg.Key] {
		if sub.send(msg) {
			b.dropped.Add(1)
		}
	}
	return nil
}

// Subscribers returns the number of live subscribers of key.
func (b *MemoryBroadcaster[T]) Subscribers(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[key])
}

// Dropped returns how many queued messages were replaced by newer ones.
func (b *MemoryBroadcaster[T]) Dropped() uint64 {
	return b.dropped.Load()
}

// Close shuts down the broadcaster and closes all subscribers.
// It is safe to call Close multiple times.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	subs := make([]*subscriber[T], 0)
	for _, topic := range b.topics {
		for sub := range topic {
			subs = append(subs, sub)
		}
	}
	clear(b.topics)
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}

	b.cleanupWg.Wait()
	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topic := b.topics[sub.key]
	delete(topic, sub)
	if len(topic) == 0 {
		delete(b.topics, sub.key)
	}
}
