package mongostore

import "time"

// Config represents the configuration for the database.
type Config struct {
	ConnectionURL   string        `env:"TILLKIT_MONGO_URL,required"`                         // ConnectionURL is the URL of the deployment. Change streams need a replica set.
	Database        string        `env:"TILLKIT_MONGO_DATABASE" envDefault:"tillkit"`        // Database holds the subscriptions collection.
	Collection      string        `env:"TILLKIT_MONGO_COLLECTION" envDefault:"subscriptions"` // Collection stores one document per owner.
	ConnectTimeout  time.Duration `env:"TILLKIT_MONGO_CONNECT_TIMEOUT" envDefault:"10s"`     // ConnectTimeout is the timeout for connecting to the database.
	MaxPoolSize     uint64        `env:"TILLKIT_MONGO_MAX_POOL_SIZE" envDefault:"100"`       // MaxPoolSize is the maximum number of connections in the pool.
	MinPoolSize     uint64        `env:"TILLKIT_MONGO_MIN_POOL_SIZE" envDefault:"1"`         // MinPoolSize is the minimum number of connections in the pool.
	MaxConnIdleTime time.Duration `env:"TILLKIT_MONGO_MAX_CONN_IDLE_TIME" envDefault:"300s"` // MaxConnIdleTime is the maximum time a pooled connection may stay idle.
	RetryAttempts   int           `env:"TILLKIT_MONGO_RETRY_ATTEMPTS" envDefault:"3"`        // RetryAttempts is the number of connection attempts.
	RetryInterval   time.Duration `env:"TILLKIT_MONGO_RETRY_INTERVAL" envDefault:"5s"`       // RetryInterval is the pause between attempts.
}
