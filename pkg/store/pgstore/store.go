// Package pgstore stores subscription records in PostgreSQL.
//
// Save upserts the row and calls pg_notify with the owner id inside the same
// transaction, so a notification is only sent for committed writes. Watch
// holds one pooled connection in LISTEN mode per feed and re-reads the row
// whenever its owner id is announced.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

const defaultNotifyChannel = "subscription_changes"

var channelName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

const selectRecord = `
SELECT owner_id, tier, status, start_date, end_date, auto_renew,
       trial_ends_at, billing, created_at, updated_at
FROM subscriptions
WHERE owner_id = $1`

const upsertRecord = `
INSERT INTO subscriptions (owner_id, tier, status, start_date, end_date, auto_renew,
                           trial_ends_at, billing, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (owner_id) DO UPDATE SET
    tier          = EXCLUDED.tier,
    status        = EXCLUDED.status,
    start_date    = EXCLUDED.start_date,
    end_date      = EXCLUDED.end_date,
    auto_renew    = EXCLUDED.auto_renew,
    trial_ends_at = EXCLUDED.trial_ends_at,
    billing       = EXCLUDED.billing,
    updated_at    = EXCLUDED.updated_at`

const insertRecord = `
INSERT INTO subscriptions (owner_id, tier, status, start_date, end_date, auto_renew,
                           trial_ends_at, billing, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (owner_id) DO NOTHING`

// Option configures a Store.
type Option func(*Store)

// WithNotifyChannel overrides the LISTEN/NOTIFY channel.
func WithNotifyChannel(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.channel = name
		}
	}
}

// WithLogger sets the logger used for watch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store implements subscription.Store on a pgx pool.
type Store struct {
	pool    *pgxpool.Pool
	channel string
	log     *slog.Logger
}

// New creates a Store. It panics if pool is nil or the channel name is not
// a plain lower-case identifier.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	if pool == nil {
		panic("pgstore: pool is required")
	}
	s := &Store{
		pool:    pool,
		channel: defaultNotifyChannel,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !channelName.MatchString(s.channel) {
		panic(fmt.Errorf("%w: %q", ErrInvalidNotifyChannel, s.channel))
	}
	return s
}

// Get implements subscription.Reader.
func (s *Store) Get(ctx context.Context, ownerID string) (*subscription.Record, error) {
	return getRecord(ctx, s.pool, ownerID)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getRecord(ctx context.Context, q querier, ownerID string) (*subscription.Record, error) {
	var (
		rec     subscription.Record
		tier    string
		status  string
		billing []byte
	)
	err := q.QueryRow(ctx, selectRecord, ownerID).Scan(
		&rec.OwnerID, &tier, &status, &rec.StartDate, &rec.EndDate, &rec.AutoRenew,
		&rec.TrialEndsAt, &billing, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, subscription.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.Tier, rec.Status = plan.Tier(tier), subscription.Status(status)
	if len(billing) > 0 {
		rec.Billing = &subscription.BillingInfo{}
		if err := json.Unmarshal(billing, rec.Billing); err != nil {
			return nil, fmt.Errorf("decode billing of %s: %w", ownerID, err)
		}
	}
	rec.Normalize()
	return &rec, nil
}

// Save implements subscription.Writer.
func (s *Store) Save(ctx context.Context, rec *subscription.Record) error {
	return s.write(ctx, upsertRecord, rec)
}

// Create implements subscription.Creator.
func (s *Store) Create(ctx context.Context, rec *subscription.Record) error {
	return s.write(ctx, insertRecord, rec)
}

// write runs query for rec and announces the owner when a row was written.
// A statement that writes nothing reports ErrRecordExists.
func (s *Store) write(ctx context.Context, query string, rec *subscription.Record) error {
	if rec == nil {
		return subscription.ErrInvalidRecord
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	var billing []byte
	if rec.Billing != nil {
		var err error
		if billing, err = json.Marshal(rec.Billing); err != nil {
			return err
		}
	}

	created, updated := rec.CreatedAt, rec.UpdatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if updated.IsZero() {
		updated = created
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			rec.OwnerID, string(rec.Tier), string(rec.Status), rec.StartDate, rec.EndDate, rec.AutoRenew,
			rec.TrialEndsAt, billing, created, updated,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return subscription.ErrRecordExists
		}
		_, err = tx.Exec(ctx, "SELECT pg_notify($1, $2)", s.channel, rec.OwnerID)
		return err
	})
}

// Watch implements subscription.Watcher.
func (s *Store) Watch(ctx context.Context, ownerID string) (subscription.Feed, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, subscription.ErrInvalidRecord
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	pipe := subscription.NewPipe(1, func() error {
		cancel()
		return nil
	})

	go func() {
		defer s.release(conn)
		defer cancel()

		for {
			n, err := conn.Conn().WaitForNotification(watchCtx)
			if err != nil {
				if watchCtx.Err() != nil {
					pipe.Fail(watchCtx.Err())
				} else {
					pipe.Fail(err)
				}
				return
			}
			if n.Payload != ownerID {
				continue
			}

			rec, err := s.Get(watchCtx, ownerID)
			if errors.Is(err, subscription.ErrRecordNotFound) {
				rec, err = nil, nil
			}
			if err != nil {
				pipe.Fail(err)
				return
			}
			if !pipe.Send(watchCtx, subscription.Event{OwnerID: ownerID, Record: rec}) {
				pipe.Finish()
				return
			}
		}
	}()

	return pipe, nil
}

// release unlistens before handing the connection back to the pool.
// A connection broken by cancellation is closed by the pool on release.
func (s *Store) release(conn *pgxpool.Conn) {
	defer conn.Release()
	if conn.Conn().IsClosed() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := conn.Exec(ctx, "UNLISTEN *"); err != nil {
		s.log.Warn("failed to unlisten", slog.Any("error", err))
	}
}
