package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/realtime/core/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output with attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithJSONFormatter(),
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "test")),
		)

		log.Info("joined", logger.Topic("room:1"), logger.ConnID("abc"))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "joined", rec["msg"])
		assert.Equal(t, "test", rec["service"])
		assert.Equal(t, "room:1", rec["topic"])
		assert.Equal(t, "abc", rec["conn_id"])
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))

		log.Info("hidden")
		assert.Empty(t, buf.String())

		log.Warn("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("development preset enables debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment("svc"), logger.WithOutput(&buf))

		assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
		log.Debug("dbg")
		assert.Contains(t, buf.String(), "env=development")
	})

	t.Run("production preset writes json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithProduction("svc"), logger.WithOutput(&buf))

		assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
		log.Info("hello")
		assert.Contains(t, buf.String(), `"env":"production"`)
	})
}

func TestForEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"production", `"env":"production"`},
		{"prod", `"env":"production"`},
		{"staging", `"env":"staging"`},
		{"", "env=development"},
		{"anything", "env=development"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := logger.New(logger.ForEnv(tt.env, "svc"), logger.WithOutput(&buf))
			log.Info("x")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("bogus"))
}

func TestNop(t *testing.T) {
	t.Parallel()

	log := logger.Nop()
	require.NotNil(t, log)
	log.Error("ignored")
}
