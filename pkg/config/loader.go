package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]any)

	defaultEnvLoaded sync.Once
)

// LoadEnv reads the given .env files into the process environment.
// Variables already set are not overridden. Without arguments it reads
// ./.env and ignores a missing file.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		defaultEnvLoaded.Do(func() {
			_ = godotenv.Load()
		})
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses environment variables into v using `env` struct tags.
// The default .env file is read once per process. Each config type is parsed
// once; later calls for the same type return the cached copy.
//
//	type HTTPConfig struct {
//		Addr string `env:"TILLKIT_HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg HTTPConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	_ = LoadEnv()

	key := reflect.TypeFor[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache[key] = parsed
	*v = parsed
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ResetCache drops every cached config so the next Load re-reads the
// environment. Intended for tests.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	clear(cache)
}
