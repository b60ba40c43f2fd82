package subscription

import "context"

// Reader performs point reads of records.
type Reader interface {
	// Get returns the record owned by ownerID.
	// Returns ErrRecordNotFound if no record exists.
	Get(ctx context.Context, ownerID string) (*Record, error)
}

// Writer creates or replaces records. Only the billing, admin and
// registration flows write.
type Writer interface {
	// Save creates or replaces the record keyed by rec.OwnerID.
	Save(ctx context.Context, rec *Record) error
}

// Creator stores a record only if its owner has none yet. Stores that
// implement it make registration race-free.
type Creator interface {
	// Create stores rec unless a record keyed by rec.OwnerID exists.
	// Returns ErrRecordExists in that case.
	Create(ctx context.Context, rec *Record) error
}

// Watcher opens a live subscription to one owner's record.
type Watcher interface {
	// Watch starts delivering the owner's record on every change.
	// The returned Feed must be closed by the caller.
	Watch(ctx context.Context, ownerID string) (Feed, error)
}

// Store is a remote record store.
type Store interface {
	Reader
	Writer
	Watcher
}

// Event carries a full replacement snapshot of a record.
// A nil Record means the store holds no record for the owner.
type Event struct {
	OwnerID string
	Record  *Record
}

// Feed is a cancellable live subscription.
// Events are delivered in the order the store emitted them. The channel is
// closed when the feed ends; Err then reports why (nil after Close).
type Feed interface {
	Events() <-chan Event
	Err() error
	Close() error
}
