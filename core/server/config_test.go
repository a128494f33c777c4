package server_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/realtime/core/config"
	"github.com/dmitrymomot/realtime/core/server"
)

func TestNewFromConfig(t *testing.T) {
	t.Run("creates server from config with defaults", func(t *testing.T) {
		srv, err := server.NewFromConfig(server.DefaultConfig())

		require.NoError(t, err)
		assert.Equal(t, ":8080", srv.Addr())
	})

	t.Run("allows overriding config values with options", func(t *testing.T) {
		cfg := server.Config{
			Addr:            "127.0.0.1:9000",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		}

		srv, err := server.NewFromConfig(cfg, server.WithShutdownTimeout(10*time.Second))

		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9000", srv.Addr())
	})

	t.Run("fails without address", func(t *testing.T) {
		srv, err := server.NewFromConfig(server.Config{ReadTimeout: 10 * time.Second})

		assert.ErrorIs(t, err, server.ErrMissingAddress)
		assert.Nil(t, srv)
	})

	t.Run("fails on missing certificate files", func(t *testing.T) {
		cfg := server.DefaultConfig()
		cfg.TLSCertFile = "/nonexistent/cert.pem"
		cfg.TLSKeyFile = "/nonexistent/key.pem"

		srv, err := server.NewFromConfig(cfg)

		assert.ErrorIs(t, err, server.ErrFailedLoadCert)
		assert.Nil(t, srv)
	})
}

func TestConfig_Env(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	t.Setenv("SERVER_ADDR", "127.0.0.1:7000")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "5s")

	var cfg server.Config
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, server.DefaultReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, server.DefaultMaxHeaderBytes, cfg.MaxHeaderBytes)
}
