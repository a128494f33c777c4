package main

import (
	"github.com/dmitrymomot/realtime/core/server"
	"github.com/dmitrymomot/realtime/core/socket"
)

type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"realtimed"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	Server server.Config
	Socket socket.Config
}
