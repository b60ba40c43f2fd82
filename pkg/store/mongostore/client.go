package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Connect creates a client and pings it, retrying on failure.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	for range max(cfg.RetryAttempts, 1) {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnectToMongo, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToConnectToMongo
}

// Healthcheck returns a ping closure for readiness probes.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, nil); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
