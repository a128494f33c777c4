// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/realtime/core/config"
//
//	type SocketConfig struct {
//		BusCapacity   int `env:"SOCKET_BUS_CAPACITY" envDefault:"1024"`
//		MaxSendErrors int `env:"SOCKET_MAX_SEND_ERRORS" envDefault:"0"`
//	}
//
//	func main() {
//		var sc SocketConfig
//
//		// Load with error handling
//		if err := config.Load(&sc); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&sc)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 SocketConfig
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 SocketConfig
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// Reset clears the cache, which tests use after changing the environment.
//
// Different types are cached independently:
//
//	type ServerConfig struct {
//		Port int `env:"PORT" envDefault:"8080"`
//	}
//
//	type AppConfig struct {
//		Env string `env:"APP_ENV" envDefault:"development"`
//	}
//
//	// Each type has its own cache entry
//	config.MustLoad(&ServerConfig{})
//	config.MustLoad(&AppConfig{})
package config
