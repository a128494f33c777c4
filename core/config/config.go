package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	loadDotenv sync.Once

	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]any)
)

// Load parses environment variables into cfg, which must be a non-nil pointer
// to a struct. The first successful load of a type is cached; later calls for
// the same type copy the cached value into cfg.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	loadDotenv.Do(func() {
		// A missing .env file is not an error.
		_ = godotenv.Load()
	})

	t := reflect.TypeFor[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[t]; ok {
		*cfg = cached.(T)
		return nil
	}

	var v T
	if err := env.Parse(&v); err != nil {
		return fmt.Errorf("%w: %T: %w", ErrParse, v, err)
	}

	cache[t] = v
	*cfg = v
	return nil
}

// MustLoad is like Load but panics on failure. Intended for program startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Reset drops every cached configuration. Tests use it to reload after
// changing the environment.
func Reset() {
	cacheMu.Lock()
	clear(cache)
	cacheMu.Unlock()
}
