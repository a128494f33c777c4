package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/realtime/core/config"
	"github.com/dmitrymomot/realtime/core/health"
	"github.com/dmitrymomot/realtime/core/logger"
	"github.com/dmitrymomot/realtime/core/server"
	"github.com/dmitrymomot/realtime/core/socket"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg) // panic on error

	logOpts := []logger.Option{logger.ForEnv(cfg.AppEnv, cfg.AppName)}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	router := socket.NewRouterFromConfig(cfg.Socket,
		socket.WithLogger(log.With(logger.Component("socket"))),
	)
	defer router.Close()

	router.Join(socket.Typed(authenticate))
	router.Topic("room:lobby", lobby)

	mux := newMux(router, log, cfg.Socket.WSOptions()...)

	s, err := server.NewFromConfig(cfg.Server,
		server.WithLogger(log.With(logger.Component("server"))),
		server.WithShutdownHook(func() { _ = router.Close() }),
	)
	if err != nil {
		log.Error("Failed to create server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(s.Run(ctx, mux))

	if err := eg.Wait(); err != nil {
		log.Error("Failed to run server", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped", logger.Count("dropped_broadcasts", int(router.Dropped())))
}

func newMux(router *socket.Router, log *slog.Logger, opts ...socket.WSOption) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /socket/websocket", router.Handler(opts...))
	mux.HandleFunc("GET /health/live", health.Liveness)
	mux.Handle("GET /health/ready", health.Readiness(log, router.Healthcheck))
	return mux
}
