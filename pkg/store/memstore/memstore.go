// Package memstore is an in-process subscription.Store.
//
// It backs tests and single-node deployments. Writes are published to
// watchers through a conflating broadcaster, so a watcher that falls behind
// skips intermediate snapshots but always receives the latest one.
package memstore

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/tillkit/pkg/broadcast"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

const defaultBufferSize = 8

// Option configures a Store.
type Option func(*Store)

// WithBufferSize sets the per-watcher buffer.
func WithBufferSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// Store keeps records in a map. All methods are safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	records    map[string]*subscription.Record
	hub        *broadcast.MemoryBroadcaster[*subscription.Record]
	bufferSize int
	writes     atomic.Int64
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		records:    make(map[string]*subscription.Record),
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = broadcast.NewMemoryBroadcaster[*subscription.Record](s.bufferSize)
	return s
}

// Get implements subscription.Reader.
func (s *Store) Get(ctx context.Context, ownerID string) (*subscription.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[ownerID]
	if !ok {
		return nil, subscription.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

// Save implements subscription.Writer.
func (s *Store) Save(ctx context.Context, rec *subscription.Record) error {
	return s.write(ctx, rec, false)
}

// Create implements subscription.Creator.
func (s *Store) Create(ctx context.Context, rec *subscription.Record) error {
	return s.write(ctx, rec, true)
}

func (s *Store) write(ctx context.Context, rec *subscription.Record, createOnly bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil {
		return subscription.ErrInvalidRecord
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	stored := rec.Clone()
	stored.Materialized = false
	stored.Normalize()

	// publishing under the write lock keeps watcher order equal to write order
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[stored.OwnerID]; exists && createOnly {
		return subscription.ErrRecordExists
	}
	s.records[stored.OwnerID] = stored
	s.writes.Add(1)
	return s.hub.Broadcast(ctx, broadcast.Message[*subscription.Record]{
		Key:  stored.OwnerID,
		Data: stored.Clone(),
	})
}

// Delete removes the owner's record and notifies watchers with a nil record.
// Normal operation never deletes records; admin tooling and tests do.
func (s *Store) Delete(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[ownerID]; !ok {
		return subscription.ErrRecordNotFound
	}
	delete(s.records, ownerID)
	s.writes.Add(1)
	return s.hub.Broadcast(ctx, broadcast.Message[*subscription.Record]{Key: ownerID})
}

// Watch implements subscription.Watcher.
func (s *Store) Watch(ctx context.Context, ownerID string) (subscription.Feed, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, subscription.ErrInvalidRecord
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	sub := s.hub.Subscribe(watchCtx, ownerID)
	pipe := subscription.NewPipe(0, func() error {
		cancel()
		return sub.Close()
	})

	go func() {
		defer cancel()
		for {
			select {
			case msg, ok := <-sub.Receive(watchCtx):
				if !ok {
					if err := watchCtx.Err(); err != nil {
						pipe.Fail(err)
					} else {
						pipe.Fail(subscription.ErrFeedClosed)
					}
					return
				}
				if !pipe.Send(watchCtx, subscription.Event{OwnerID: ownerID, Record: msg.Data.Clone()}) {
					pipe.Finish()
					return
				}
			case <-pipe.Done():
				pipe.Finish()
				return
			}
		}
	}()

	return pipe, nil
}

// Writes returns the number of successful Save and Delete calls.
func (s *Store) Writes() int64 {
	return s.writes.Load()
}

// Watchers returns the number of open feeds for ownerID.
func (s *Store) Watchers(ownerID string) int {
	return s.hub.Subscribers(ownerID)
}

// Close ends every open feed with subscription.ErrFeedClosed.
func (s *Store) Close() error {
	return s.hub.Close()
}
