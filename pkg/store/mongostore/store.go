// Package mongostore stores subscription records in MongoDB, one document
// per owner keyed by _id. Watch uses a change stream filtered on the
// document key and requests the full document on updates, so every event is
// a complete snapshot. Change streams require a replica set or sharded
// cluster.
package mongostore

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for skipped change events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store implements subscription.Store on a MongoDB collection.
type Store struct {
	coll *mongo.Collection
	log  *slog.Logger
}

// New creates a Store. It panics if coll is nil.
func New(coll *mongo.Collection, opts ...Option) *Store {
	if coll == nil {
		panic("mongostore: collection is required")
	}
	s := &Store{
		coll: coll,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements subscription.Reader.
func (s *Store) Get(ctx context.Context, ownerID string) (*subscription.Record, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: ownerID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, subscription.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.record()
}

// Save implements subscription.Writer.
func (s *Store) Save(ctx context.Context, rec *subscription.Record) error {
	if rec == nil {
		return subscription.ErrInvalidRecord
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: rec.OwnerID}},
		toDocument(rec),
		options.Replace().SetUpsert(true),
	)
	return err
}

// Create implements subscription.Creator. The owner id is the document
// _id, so the unique index rejects a second insert.
func (s *Store) Create(ctx context.Context, rec *subscription.Record) error {
	if rec == nil {
		return subscription.ErrInvalidRecord
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	_, err := s.coll.InsertOne(ctx, toDocument(rec))
	if mongo.IsDuplicateKeyError(err) {
		return subscription.ErrRecordExists
	}
	return err
}

// changeEvent is the subset of a change stream event the store reads.
type changeEvent struct {
	OperationType string    `bson:"operationType"`
	FullDocument  *document `bson:"fullDocument"`
}

// Watch implements subscription.Watcher.
func (s *Store) Watch(ctx context.Context, ownerID string) (subscription.Feed, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, subscription.ErrInvalidRecord
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: ownerID}}}},
	}
	stream, err := s.coll.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	pipe := subscription.NewPipe(1, func() error {
		cancel()
		return nil
	})

	go func() {
		defer cancel()
		defer func() { _ = stream.Close(context.Background()) }()

		for stream.Next(watchCtx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				s.log.WarnContext(watchCtx, "skipping undecodable change event",
					slog.String("owner_id", ownerID),
					slog.Any("error", err))
				continue
			}

			var rec *subscription.Record
			switch {
			case ev.OperationType == "delete":
			case ev.FullDocument != nil:
				r, err := ev.FullDocument.record()
				if err != nil {
					s.log.WarnContext(watchCtx, "skipping invalid subscription document",
						slog.String("owner_id", ownerID),
						slog.Any("error", err))
					continue
				}
				rec = r
			default:
				// update whose document is already gone; a delete event follows
				continue
			}

			if !pipe.Send(watchCtx, subscription.Event{OwnerID: ownerID, Record: rec}) {
				pipe.Finish()
				return
			}
		}

		if err := stream.Err(); err != nil && watchCtx.Err() == nil {
			pipe.Fail(err)
			return
		}
		pipe.Fail(watchCtx.Err())
	}()

	return pipe, nil
}

// Delete removes the owner's document.
func (s *Store) Delete(ctx context.Context, ownerID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: ownerID}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return subscription.ErrRecordNotFound
	}
	return nil
}
