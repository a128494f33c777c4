package socket

import "time"

// Config holds socket settings with environment variable support.
type Config struct {
	// Fanout
	BusCapacity    int  `env:"SOCKET_BUS_CAPACITY" envDefault:"1024"`
	TopicFiltering bool `env:"SOCKET_TOPIC_FILTERING" envDefault:"false"`
	MaxSendErrors  int  `env:"SOCKET_MAX_SEND_ERRORS" envDefault:"0"`

	// Websocket endpoint
	ReadBufferSize   int           `env:"SOCKET_READ_BUFFER_SIZE" envDefault:"1024"`
	WriteBufferSize  int           `env:"SOCKET_WRITE_BUFFER_SIZE" envDefault:"1024"`
	HandshakeTimeout time.Duration `env:"SOCKET_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	WriteTimeout     time.Duration `env:"SOCKET_WRITE_TIMEOUT" envDefault:"10s"`
	ReadLimit        int64         `env:"SOCKET_READ_LIMIT" envDefault:"65536"` // 64KB
	AllowedOrigins   []string      `env:"SOCKET_ALLOWED_ORIGINS" envSeparator:","`
}

// DefaultConfig returns a Config with the same values as the env defaults.
func DefaultConfig() Config {
	return Config{
		BusCapacity:      DefaultBusCapacity,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadLimit:        64 << 10,
	}
}

// NewRouterFromConfig creates a Router from configuration.
// Additional options override config values.
func NewRouterFromConfig(cfg Config, opts ...Option) *Router {
	configOpts := make([]Option, 0, 3+len(opts))

	if cfg.BusCapacity > 0 {
		configOpts = append(configOpts, WithBusCapacity(cfg.BusCapacity))
	}
	if cfg.TopicFiltering {
		configOpts = append(configOpts, WithTopicFiltering())
	}
	if cfg.MaxSendErrors > 0 {
		configOpts = append(configOpts, WithMaxSendErrors(cfg.MaxSendErrors))
	}

	return NewRouter(append(configOpts, opts...)...)
}

// WSOptions converts the endpoint settings into Handler options.
func (cfg Config) WSOptions() []WSOption {
	opts := make([]WSOption, 0, 6)

	if cfg.ReadBufferSize > 0 {
		opts = append(opts, WithWSReadBuffer(cfg.ReadBufferSize))
	}
	if cfg.WriteBufferSize > 0 {
		opts = append(opts, WithWSWriteBuffer(cfg.WriteBufferSize))
	}
	if cfg.HandshakeTimeout > 0 {
		opts = append(opts, WithWSHandshakeTimeout(cfg.HandshakeTimeout))
	}
	if cfg.WriteTimeout > 0 {
		opts = append(opts, WithWSWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.ReadLimit > 0 {
		opts = append(opts, WithWSReadLimit(cfg.ReadLimit))
	}
	if len(cfg.AllowedOrigins) > 0 {
		opts = append(opts, WithWSAllowedOrigins(cfg.AllowedOrigins...))
	}

	return opts
}
