// Package logger provides structured logging utilities built on Go's standard slog package.
//
// It offers a small factory with environment presets and a set of attribute helpers
// for the values that show up in socket logs: connection ids, topics, envelope refs,
// events and errors.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/realtime/core/logger"
//
//	// Development: text format, debug level, stdout
//	log := logger.New(logger.WithDevelopment("realtimed"))
//
//	// Production: JSON format, info level, stdout
//	log := logger.New(logger.WithProduction("realtimed"))
//
//	// Pick a preset from configuration
//	log := logger.New(
//		logger.ForEnv(cfg.Env, cfg.AppName),
//		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
//	)
//
//	log.Info("socket server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for nil or empty input, so they can be used
// without guarding:
//
//	log.Error("failed to send frame",
//		logger.ConnID(conn.ID()),
//		logger.Topic(conn.Topic()),
//		logger.Refs(conn.JoinRef(), conn.MsgRef()),
//		logger.Error(err),
//	)
//
//	log.Debug("dispatching event",
//		logger.Event("new_msg"),
//		logger.Size(len(payload)),
//	)
//
// # Discarding Output
//
// Components in this module default to a discarding logger. Nop returns one
// explicitly, which is handy in tests:
//
//	router := socket.NewRouter(socket.WithLogger(logger.Nop()))
//
// # Testing with Custom Output
//
//	var buf bytes.Buffer
//	log := logger.New(
//		logger.WithJSONFormatter(),
//		logger.WithOutput(&buf),
//	)
//
//	log.Info("Test message", logger.Component("test"))
//	assert.Contains(t, buf.String(), `"component":"test"`)
package logger
