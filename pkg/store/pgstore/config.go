package pgstore

import "time"

type Config struct {
	ConnectionString  string        `env:"TILLKIT_PG_URL,required"`                        // ConnectionString is the connection string to the database.
	MaxOpenConns      int32         `env:"TILLKIT_PG_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the maximum number of open connections. Every watch holds one.
	MaxIdleConns      int32         `env:"TILLKIT_PG_MAX_IDLE_CONNS" envDefault:"2"`       // MaxIdleConns is the minimum number of connections kept open.
	HealthCheckPeriod time.Duration `env:"TILLKIT_PG_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between health checks.
	MaxConnIdleTime   time.Duration `env:"TILLKIT_PG_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is the maximum amount of time a connection may be idle.
	MaxConnLifetime   time.Duration `env:"TILLKIT_PG_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum amount of time a connection may be reused.

	RetryAttempts int           `env:"TILLKIT_PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of connection attempts.
	RetryInterval time.Duration `env:"TILLKIT_PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the base pause between attempts.

	MigrationsTable string `env:"TILLKIT_PG_MIGRATIONS_TABLE" envDefault:"tillkit_schema_migrations"` // MigrationsTable stores the applied migration version.
	NotifyChannel   string `env:"TILLKIT_PG_NOTIFY_CHANNEL" envDefault:"subscription_changes"`       // NotifyChannel carries the owner id of every changed record.
}
