package main

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/tillkit/pkg/config"
	"github.com/dmitrymomot/tillkit/pkg/httpserver"
	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/plan"
)

// Store backends.
const (
	storeMemory   = "memory"
	storeRedis    = "redis"
	storePostgres = "postgres"
	storeMongo    = "mongo"
)

// Config is the process configuration.
type Config struct {
	Env            config.Environment `env:"TILLKIT_ENV" envDefault:"development"`
	LogLevel       string             `env:"TILLKIT_LOG_LEVEL"`
	Store          string             `env:"TILLKIT_STORE" envDefault:"memory"`
	PlansFile      string             `env:"TILLKIT_PLANS_FILE"`
	ResyncInterval time.Duration      `env:"TILLKIT_RESYNC_INTERVAL" envDefault:"15s"`
	MetricsAddr    string             `env:"TILLKIT_METRICS_ADDR" envDefault:":9091"`

	HTTP httpserver.Config
}

// bootstrap reads the configuration and builds the logger.
func bootstrap() (Config, *slog.Logger, error) {
	if envFile != "" {
		if err := config.LoadEnv(envFile); err != nil {
			return Config{}, nil, err
		}
	}

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, nil, err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "tillkitd"),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(logger.ActorExtractor()),
	)
	return cfg, log, nil
}

// loadCatalog returns the YAML catalog when configured, the built-in one
// otherwise. Lookups of unknown tiers are logged.
func loadCatalog(cfg Config, log *slog.Logger) (*plan.Catalog, error) {
	if cfg.PlansFile == "" {
		return plan.Default(), nil
	}

	return plan.LoadFile(cfg.PlansFile, plan.WithFallbackHook(func(requested, resolved plan.Tier) {
		log.Warn("unknown tier, using fallback",
			slog.String("requested", string(requested)),
			logger.Tier(resolved),
		)
	}))
}
