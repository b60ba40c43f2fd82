package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/rbac"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

// Source is the read side of a record store: a point read plus a live watch.
type Source interface {
	subscription.Reader
	subscription.Watcher
}

// watch is one open live subscription.
type watch struct {
	feed   subscription.Feed
	cancel context.CancelFunc
	done   chan struct{} // closed when the consumer goroutine exits
}

// Synchronizer keeps a live local snapshot of the record governing the
// current acting identity.
//
// Identity changes are serialized. A change tears down the previous watch
// before opening the next, and events of a torn-down watch are never
// applied. Readers go through Snapshot, which never blocks.
type Synchronizer struct {
	source   Source
	log      *slog.Logger
	now      func() time.Time
	metrics  *syncMetrics
	onError  ErrorHandler
	onChange ChangeHandler

	base       context.Context
	cancelBase context.CancelFunc

	switchMu sync.Mutex // serializes SetActor, Resync and Close

	mu     sync.Mutex
	gen    uint64
	actor  rbac.Actor
	owner  string
	active *watch
	closed bool

	snapshot atomic.Pointer[subscription.Record]
}

// NewSynchronizer creates a Synchronizer over source with no identity.
// Panics if source is nil.
func NewSynchronizer(source Source, opts ...Option) *Synchronizer {
	if source == nil {
		panic("entitlement: source is required")
	}

	s := &Synchronizer{
		source: source,
		log:    logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newSyncMetrics(nil)
	}
	s.log = s.log.With(logger.Component("entitlement.sync"))
	s.base, s.cancelBase = context.WithCancel(context.Background())

	return s
}

// SetActor switches the acting identity.
//
// When the governing owner is unchanged the open watch is kept and only the
// actor is replaced. Otherwise the snapshot is cleared, the previous watch is
// torn down and, if the new actor has a governing owner, a new watch is
// opened and the snapshot materialized. A failure to open is returned
// wrapped in ErrSyncUnavailable; Resync retries it.
func (s *Synchronizer) SetActor(ctx context.Context, actor rbac.Actor) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	owner, ok := GoverningOwner(actor)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSynchronizerClosed
	}
	if ok && owner == s.owner {
		s.actor = actor
		watching := s.active != nil
		gen := s.gen
		s.mu.Unlock()
		if watching {
			return nil
		}
		return s.open(ctx, owner, gen)
	}

	s.gen++
	gen := s.gen
	prev := s.active
	s.active = nil
	s.actor = actor
	s.owner = owner
	s.snapshot.Store(nil)
	s.mu.Unlock()

	s.teardown(ctx, prev)

	if !ok {
		s.log.DebugContext(ctx, "identity cleared")
		return nil
	}

	s.log.DebugContext(ctx, "identity switched", logger.Owner(owner), logger.Actor(actor))
	return s.open(ctx, owner, gen)
}

// Resync reopens the live subscription for the current identity.
// The snapshot is retained until the fresh read replaces it.
func (s *Synchronizer) Resync(ctx context.Context) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSynchronizerClosed
	}
	owner := s.owner
	if owner == "" {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	prev := s.active
	s.active = nil
	s.mu.Unlock()

	s.teardown(ctx, prev)
	return s.open(ctx, owner, gen)
}

// Close tears down the live subscription and clears the snapshot.
// It is safe to call more than once.
func (s *Synchronizer) Close() error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.gen++
	prev := s.active
	s.active = nil
	s.owner = ""
	s.actor = rbac.Actor{}
	s.snapshot.Store(nil)
	s.mu.Unlock()

	s.cancelBase()
	s.teardown(context.Background(), prev)
	return nil
}

// Snapshot returns a copy of the current record. It reports false when
// there is no governing identity or nothing has been materialized yet.
func (s *Synchronizer) Snapshot() (*subscription.Record, bool) {
	rec := s.snapshot.Load()
	if rec == nil {
		return nil, false
	}
	return rec.Clone(), true
}

// Owner returns the governing identity key, or "" without an identity.
func (s *Synchronizer) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Actor returns the current acting identity.
func (s *Synchronizer) Actor() rbac.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actor
}

// Watching reports whether a live subscription is open.
func (s *Synchronizer) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// KeepAlive calls Resync every interval while an identity is set but its
// live subscription is down. It blocks until ctx is done.
func (s *Synchronizer) KeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Owner() == "" || s.Watching() {
				continue
			}
			if err := s.Resync(ctx); err != nil {
				if errors.Is(err, ErrSynchronizerClosed) {
					return
				}
				s.log.WarnContext(ctx, "resync failed", logger.Error(err))
			}
		}
	}
}

// open watches first and reads second so that no write between the two is
// missed. Only the caller holding switchMu may call it.
func (s *Synchronizer) open(ctx context.Context, owner string, gen uint64) error {
	watchCtx, cancel := context.WithCancel(s.base)
	stop := context.AfterFunc(ctx, cancel)

	feed, err := s.source.Watch(watchCtx, owner)
	if err != nil {
		stop()
		cancel()
		return s.failOpen(ctx, stageWatch, owner, err)
	}

	rec, err := s.source.Get(ctx, owner)
	if !stop() {
		// ctx ended while opening and took the watch down with it.
		err = errors.Join(err, ctx.Err())
	}
	source := sourceInitial
	switch {
	case err == nil:
		rec.Normalize()
	case errors.Is(err, subscription.ErrRecordNotFound) && ctx.Err() == nil:
		rec, source = s.defaultRecord(owner), sourceDefault
	default:
		_ = feed.Close()
		cancel()
		return s.failOpen(ctx, stageGet, owner, err)
	}

	w := &watch{feed: feed, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		_ = feed.Close()
		cancel()
		return ErrSynchronizerClosed
	}
	s.active = w
	s.snapshot.Store(rec)
	s.mu.Unlock()

	s.metrics.activeWatches.Inc()
	s.metrics.snapshotUpdates.WithLabelValues(source).Inc()
	s.log.DebugContext(ctx, "snapshot materialized",
		logger.Owner(owner),
		logger.Tier(rec.Tier),
		slog.String("status", string(rec.Status)),
		slog.Bool("materialized", rec.Materialized),
	)
	s.changed(owner, rec, gen)

	go s.consume(w, owner, gen)
	return nil
}

func (s *Synchronizer) failOpen(ctx context.Context, stage, owner string, err error) error {
	s.metrics.syncErrors.WithLabelValues(stage).Inc()
	s.log.WarnContext(ctx, "live sync unavailable",
		logger.Owner(owner),
		slog.String("stage", stage),
		logger.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", ErrSyncUnavailable, stage, err)
}

// consume applies events of one watch until its feed ends.
func (s *Synchronizer) consume(w *watch, owner string, gen uint64) {
	defer close(w.done)
	defer s.metrics.activeWatches.Dec()

	for ev := range w.feed.Events() {
		s.apply(ev, owner, gen)
	}

	s.mu.Lock()
	current := s.gen == gen && s.active == w
	if current {
		s.active = nil
	}
	s.mu.Unlock()

	if !current {
		return
	}

	// The feed ended on its own; release it and report. The snapshot stays.
	_ = w.feed.Close()
	w.cancel()

	err := w.feed.Err()
	if err == nil {
		err = subscription.ErrFeedClosed
	}
	err = fmt.Errorf("%w: %s: %w", ErrSyncUnavailable, stageFeed, err)

	s.metrics.syncErrors.WithLabelValues(stageFeed).Inc()
	s.log.Warn("live subscription ended", logger.Owner(owner), logger.Error(err))
	if s.onError != nil {
		s.onError(owner, err)
	}
}

func (s *Synchronizer) apply(ev subscription.Event, owner string, gen uint64) {
	rec, source := ev.Record, sourceEvent
	if rec == nil {
		rec, source = s.defaultRecord(owner), sourceTombstone
	} else {
		rec = rec.Clone()
		rec.Normalize()
	}

	s.mu.Lock()
	if s.gen != gen || (ev.OwnerID != "" && ev.OwnerID != owner) {
		s.mu.Unlock()
		s.metrics.snapshotUpdates.WithLabelValues(sourceStale).Inc()
		return
	}
	s.snapshot.Store(rec)
	s.mu.Unlock()

	s.metrics.snapshotUpdates.WithLabelValues(source).Inc()
	s.changed(owner, rec, gen)
}

// changed calls the change handler unless gen has been superseded.
func (s *Synchronizer) changed(owner string, rec *subscription.Record, gen uint64) {
	if s.onChange == nil {
		return
	}

	s.mu.Lock()
	current := s.gen == gen && !s.closed
	s.mu.Unlock()
	if !current {
		return
	}
	s.onChange(owner, rec.Clone())
}

// teardown closes a previous watch and waits for its consumer to stop.
func (s *Synchronizer) teardown(ctx context.Context, w *watch) {
	if w == nil {
		return
	}
	if err := w.feed.Close(); err != nil {
		s.log.DebugContext(ctx, "closing feed", logger.Error(err))
	}
	w.cancel()

	select {
	case <-w.done:
	case <-ctx.Done():
	}
}

// defaultRecord is the trial snapshot used while no record is stored.
// It is never written back.
func (s *Synchronizer) defaultRecord(owner string) *subscription.Record {
	rec := subscription.NewTrialRecord(owner, s.now())
	rec.Materialized = true
	return rec
}
