package httpserver

import "time"

// Config holds listener settings loaded from the environment.
type Config struct {
	Addr            string        `env:"TILLKIT_HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"TILLKIT_HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"TILLKIT_HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"TILLKIT_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"TILLKIT_HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}
