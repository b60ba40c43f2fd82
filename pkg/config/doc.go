// Package config loads process configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: an
// optional .env file in the working directory is read once, then the
// environment is parsed into any struct annotated with `env` tags. Each
// struct type is parsed once and cached for the lifetime of the process.
//
//	type StoreConfig struct {
//		Kind string `env:"TILLKIT_STORE" envDefault:"memory"`
//	}
//
//	var cfg StoreConfig
//	config.MustLoad(&cfg)
//
// Store adapters ship their own Config structs (redisstore.Config,
// pgstore.Config, mongostore.Config) that load the same way.
package config
