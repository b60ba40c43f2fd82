package entitlement

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

// ErrorHandler receives live sync failures. err wraps ErrSyncUnavailable.
type ErrorHandler func(ownerID string, err error)

// ChangeHandler is called after every snapshot replacement with a copy of
// the new snapshot. It runs on the sync goroutine and must not call
// SetActor, Resync or Close.
//
// A call is only started for the current identity. A call already running
// when the identity changes is waited for by the teardown of its watch,
// bounded by the context passed to SetActor or Resync.
type ChangeHandler func(ownerID string, rec *subscription.Record)

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for default trial records.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics registers the synchronizer collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Synchronizer) {
		s.metrics = newSyncMetrics(reg)
	}
}

// WithErrorHandler sets a callback for failures of the live subscription
// that happen outside SetActor and Resync.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(s *Synchronizer) {
		s.onError = fn
	}
}

// WithChangeHandler sets a callback for snapshot replacements.
func WithChangeHandler(fn ChangeHandler) Option {
	return func(s *Synchronizer) {
		s.onChange = fn
	}
}
