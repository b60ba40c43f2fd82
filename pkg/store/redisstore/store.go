// Package redisstore stores subscription records in Redis.
//
// Each record is a JSON string at <prefix><owner>. Save writes the value and
// publishes the same payload on a channel of the same name inside one
// MULTI/EXEC block, so watchers receive snapshots in write order.
package redisstore

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

const defaultKeyPrefix = "tillkit:subscription:"

// createScript sets the value only if the key is absent and publishes it
// in the same step.
var createScript = redis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX") then
	redis.call("PUBLISH", KEYS[1], ARGV[1])
	return 1
end
return 0
`)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides the key and channel prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger used for dropped pub/sub payloads.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store implements subscription.Store on top of a Redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
	log    *slog.Logger
}

// New creates a Store. It panics if client is nil.
func New(client redis.UniversalClient, opts ...Option) *Store {
	if client == nil {
		panic("redisstore: client is required")
	}
	s := &Store{
		client: client,
		prefix: defaultKeyPrefix,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the value key and pub/sub channel of ownerID.
func (s *Store) Key(ownerID string) string {
	return s.prefix + ownerID
}

// Get implements subscription.Reader.
func (s *Store) Get(ctx context.Context, ownerID string) (*subscription.Record, error) {
	data, err := s.client.Get(ctx, s.Key(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, subscription.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, subscription.ErrRecordNotFound
	}
	return rec, nil
}

// Save implements subscription.Writer.
func (s *Store) Save(ctx context.Context, rec *subscription.Record) error {
	if rec == nil {
		return subscription.ErrInvalidRecord
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	key := s.Key(rec.OwnerID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.Publish(ctx, key, data)
		return nil
	})
	return err
}

// Create implements subscription.Creator.
func (s *Store) Create(ctx context.Context, rec *subscription.Record) error {
	if rec == nil {
		return subscription.ErrInvalidRecord
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	created, err := createScript.Run(ctx, s.client, []string{s.Key(rec.OwnerID)}, data).Int()
	if err != nil {
		return err
	}
	if created == 0 {
		return subscription.ErrRecordExists
	}
	return nil
}

// Watch implements subscription.Watcher using SUBSCRIBE on the owner's channel.
func (s *Store) Watch(ctx context.Context, ownerID string) (subscription.Feed, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, subscription.ErrInvalidRecord
	}

	channel := s.Key(ownerID)
	ps := s.client.Subscribe(ctx, channel)

	// wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	pipe := subscription.NewPipe(1, ps.Close)
	go func() {
		defer func() { _ = ps.Close() }()
		s.forward(ctx, ownerID, ps.ChannelWithSubscriptions(), pipe, func(ctx context.Context) (*subscription.Record, error) {
			return s.Get(ctx, ownerID)
		})
	}()

	return pipe, nil
}

// forward relays pub/sub items into pipe until either side ends.
//
// The client resubscribes on its own after a dropped connection and anything
// published meanwhile is lost. A subscription confirmation after the initial
// one therefore triggers a reload of the current value, delivered as a
// regular event. A failed reload ends the feed so the consumer resyncs.
func (s *Store) forward(ctx context.Context, ownerID string, items <-chan any, pipe *subscription.Pipe, reload func(context.Context) (*subscription.Record, error)) {
	channel := s.Key(ownerID)
	for {
		var item any
		var ok bool
		select {
		case item, ok = <-items:
			if !ok {
				pipe.Fail(subscription.ErrFeedClosed)
				return
			}
		case <-pipe.Done():
			pipe.Finish()
			return
		case <-ctx.Done():
			pipe.Fail(ctx.Err())
			return
		}

		var rec *subscription.Record
		switch v := item.(type) {
		case *redis.Message:
			var err error
			if rec, err = decodeRecord([]byte(v.Payload)); err != nil {
				s.log.WarnContext(ctx, "dropping undecodable subscription payload",
					slog.String("channel", channel),
					slog.Any("error", err))
				continue
			}
		case *redis.Subscription:
			if v.Kind != "subscribe" {
				continue
			}
			s.log.InfoContext(ctx, "resubscribed, reloading record", slog.String("channel", channel))
			var err error
			rec, err = reload(ctx)
			if errors.Is(err, subscription.ErrRecordNotFound) {
				rec, err = nil, nil
			}
			if err != nil {
				pipe.Fail(errors.Join(subscription.ErrFeedClosed, err))
				return
			}
		default:
			continue
		}

		if !pipe.Send(ctx, subscription.Event{OwnerID: ownerID, Record: rec}) {
			pipe.Fail(ctx.Err())
			return
		}
	}
}

// Delete removes the owner's record and publishes a tombstone.
func (s *Store) Delete(ctx context.Context, ownerID string) error {
	key := s.Key(ownerID)
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, key)
		pipe.Publish(ctx, key, tombstone)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return subscription.ErrRecordNotFound
	}
	return nil
}
