package redisstore

import "time"

type Config struct {
	ConnectionURL  string        `env:"TILLKIT_REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // ConnectionURL is the URL of the server, e.g. "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"TILLKIT_REDIS_RETRY_ATTEMPTS" envDefault:"3"`                      // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"TILLKIT_REDIS_RETRY_INTERVAL" envDefault:"5s"`                     // RetryInterval is the pause between attempts.
	ConnectTimeout time.Duration `env:"TILLKIT_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`                   // ConnectTimeout bounds the whole connect loop.
	KeyPrefix      string        `env:"TILLKIT_REDIS_KEY_PREFIX" envDefault:"tillkit:subscription:"`      // KeyPrefix is prepended to the owner id for both the value key and the pub/sub channel.
}
