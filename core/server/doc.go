// Package server runs an http.Server with graceful shutdown and errgroup
// friendly lifecycle management.
//
// Websocket connections are hijacked from the HTTP server, so Shutdown does
// not wait for them. Register a shutdown hook that closes them:
//
//	router := socket.NewRouter(socket.WithLogger(log))
//
//	srv := server.New(":8080",
//		server.WithLogger(log),
//		server.WithShutdownHook(func() { _ = router.Close() }),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, mux))
//	if err := g.Wait(); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Run returns nil when the context is canceled and the server shut down
// cleanly; Start and Stop give finer control.
//
// # Configuration
//
// Config is loaded from SERVER_* environment variables:
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//
// Setting both SERVER_TLS_CERT_FILE and SERVER_TLS_KEY_FILE enables HTTPS.
package server
