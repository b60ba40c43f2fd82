package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/tillkit/pkg/config"
	"github.com/dmitrymomot/tillkit/pkg/httpserver"
	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/store/memstore"
	"github.com/dmitrymomot/tillkit/pkg/store/mongostore"
	"github.com/dmitrymomot/tillkit/pkg/store/pgstore"
	"github.com/dmitrymomot/tillkit/pkg/store/redisstore"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

// backend is an opened record store with its readiness check.
type backend struct {
	store subscription.Store
	ready httpserver.Check
	close func()
}

// openStore connects the backend named by cfg.Store. Each backend reads its
// own configuration so unused backends need no settings.
func openStore(ctx context.Context, cfg Config, log *slog.Logger) (*backend, error) {
	log = log.With(slog.String("store", cfg.Store))

	switch cfg.Store {
	case storeMemory, "":
		s := memstore.New()
		return &backend{
			store: s,
			ready: func(context.Context) error { return nil },
			close: func() { _ = s.Close() },
		}, nil

	case storeRedis:
		var rc redisstore.Config
		if err := config.Load(&rc); err != nil {
			return nil, err
		}
		client, err := redisstore.Connect(ctx, rc)
		if err != nil {
			return nil, err
		}
		return &backend{
			store: redisstore.New(client, redisstore.WithKeyPrefix(rc.KeyPrefix), redisstore.WithLogger(log)),
			ready: redisstore.Healthcheck(client),
			close: func() {
				if err := client.Close(); err != nil {
					log.Warn("closing redis client", logger.Error(err))
				}
			},
		}, nil

	case storePostgres:
		var pc pgstore.Config
		if err := config.Load(&pc); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, pc)
		if err != nil {
			return nil, err
		}
		return &backend{
			store: pgstore.New(pool, pgstore.WithNotifyChannel(pc.NotifyChannel), pgstore.WithLogger(log)),
			ready: pgstore.Healthcheck(pool),
			close: pool.Close,
		}, nil

	case storeMongo:
		var mc mongostore.Config
		if err := config.Load(&mc); err != nil {
			return nil, err
		}
		client, err := mongostore.Connect(ctx, mc)
		if err != nil {
			return nil, err
		}
		coll := client.Database(mc.Database).Collection(mc.Collection)
		return &backend{
			store: mongostore.New(coll, mongostore.WithLogger(log)),
			ready: mongostore.Healthcheck(client),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Warn("disconnecting mongo client", logger.Error(err))
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store %q: want %s, %s, %s or %s", cfg.Store, storeMemory, storeRedis, storePostgres, storeMongo)
	}
}
