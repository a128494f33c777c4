package socket_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/realtime/core/socket"
)

func TestChannel_Join(t *testing.T) {
	t.Parallel()

	t.Run("implicit ok reply without handler", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter()
		defer r.Close()
		r.Topic("room:1", nil)

		c := serve(t, r)
		c.pipe.send(t, `["1","1","room:1","phx_join",{}]`)

		assert.Equal(t, replyOK("1", "1", "room:1"), c.pipe.recv(t))
		assert.True(t, c.conn.InChannel("room:1"))
		assert.Equal(t, []string{"room:1"}, c.conn.Channels())
	})

	t.Run("handler owns the reply", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter()
		defer r.Close()

		var gotPayload atomic.Value
		r.Topic("room:1", func(ch *socket.Channel) {
			ch.Join(func(ctx context.Context, payload json.RawMessage, conn *socket.Conn) error {
				gotPayload.Store(string(payload))
				return conn.Reply(ctx, socket.StatusOK, map[string]string{"welcome": conn.ID()})
			})
		})

		c := serve(t, r)
		c.pipe.send(t, `["3","4","room:1","phx_join",{"token":"abc"}]`)

		frame := c.pipe.recv(t)
		require.Len(t, frame, 5)
		assert.Equal(t, "3", frame[0])
		assert.Equal(t, "4", frame[1])
		assert.Equal(t, "phx_reply", frame[3])
		assert.Equal(t, map[string]any{
			"status":   "ok",
			"response": map[string]any{"welcome": c.conn.ID()},
		}, frame[4])

		assert.JSONEq(t, `{"token":"abc"}`, gotPayload.Load().(string))
		assert.True(t, c.conn.InChannel("room:1"))
		c.pipe.expectSilence(t, 50*time.Millisecond)
	})

	t.Run("handler error rejects the join", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter()
		defer r.Close()
		r.Topic("room:secret", func(ch *socket.Channel) {
			ch.Join(func(ctx context.Context, _ json.RawMessage, _ *socket.Conn) error {
				return errors.New("unauthorized")
			})
		})

		c := serve(t, r)
		c.pipe.send(t, `["1","1","room:secret","phx_join",{}]`)

		assert.Equal(t, []any{"1", "1", "room:secret", "phx_reply", map[string]any{
			"status":   "error",
			"response": map[string]any{"reason": "unauthorized"},
		}}, c.pipe.recv(t))
		assert.False(t, c.conn.InChannel("room:secret"))
		assert.Empty(t, c.conn.Channels())
	})
}

func TestChannel_Leave(t *testing.T) {
	t.Parallel()

	t.Run("join then leave removes membership", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter()
		defer r.Close()
		r.Topic("room:1", nil)

		c := serve(t, r)
		c.pipe.send(t, `["1","1","room:1","phx_join",{}]`)
		c.pipe.recv(t)
		require.True(t, c.conn.InChannel("room:1"))

		c.pipe.send(t, `["1","2","room:1","phx_leave",{}]`)
		assert.Equal(t, replyOK("1", "2", "room:1"), c.pipe.recv(t))
		assert.False(t, c.conn.InChannel("room:1"))
	})

	t.Run("leave without join is a no-op on membership", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter()
		defer r.Close()
		r.Topic("room:1", nil)
		r.Topic("room:2", nil)

		c := serve(t, r)
		c.pipe.send(t, `["1","1","room:2","phx_join",{}]`)
		c.pipe.recv(t)

		c.pipe.send(t, `[null,"2","room:1","phx_leave",{}]`)
		assert.Equal(t, replyOK(nil, "2", "room:1"), c.pipe.recv(t))
		assert.Equal(t, []string{"room:2"}, c.conn.Channels())
	})

	t.Run("leave handler runs before membership changes", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter()
		defer r.Close()

		var wasMember atomic.Bool
		r.Topic("room:1", func(ch *socket.Channel) {
			ch.Leave(func(ctx context.Context, _ json.RawMessage, conn *socket.Conn) error {
				wasMember.Store(conn.InChannel("room:1"))
				return conn.Reply(ctx, socket.StatusOK, nil)
			})
		})

		c := serve(t, r)
		c.pipe.send(t, `["1","1","room:1","phx_join",{}]`)
		c.pipe.recv(t)
		c.pipe.send(t, `["1","2","room:1","phx_leave",{}]`)
		assert.Equal(t, replyOK("1", "2", "room:1"), c.pipe.recv(t))

		assert.True(t, wasMember.Load())
		assert.False(t, c.conn.InChannel("room:1"))
	})
}

func TestChannel_Events(t *testing.T) {
	t.Parallel()

	t.Run("custom event reaches its handler", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter()
		defer r.Close()
		r.Topic("room:1", func(ch *socket.Channel) {
			ch.On("ping", func(ctx context.Context, payload json.RawMessage, conn *socket.Conn) error {
				return conn.Push(ctx, "pong", payload)
			})
		})

		c := serve(t, r)
		c.pipe.send(t, `["1","5","room:1","ping",{"n":1}]`)
		assert.Equal(t, []any{"1", "5", "room:1", "pong", map[string]any{"n": float64(1)}}, c.pipe.recv(t))
	})

	t.Run("unhandled custom event is ignored", func(t *testing.T) {
		t.Parallel()

		r := newTestRouter()
		defer r.Close()
		r.Topic("room:1", nil)

		c := serve(t, r)
		c.pipe.send(t, `["1","5","room:1","unknown",{}]`)
		c.pipe.expectSilence(t, 50*time.Millisecond)
		assert.Empty(t, c.conn.Channels())
	})

	t.Run("last registration wins", func(t *testing.T) {
		t.Parallel()

		ch := socket.NewChannel("room:1")
		ch.On("ping", func(ctx context.Context, _ json.RawMessage, conn *socket.Conn) error {
			return conn.Push(ctx, "first", nil)
		})
		ch.On("ping", func(ctx context.Context, _ json.RawMessage, conn *socket.Conn) error {
			return conn.Push(ctx, "second", nil)
		})
		assert.Equal(t, []string{"ping"}, ch.Events())

		r := newTestRouter()
		defer r.Close()
		r.Channel(ch)

		c := serve(t, r)
		c.pipe.send(t, `["1","1","room:1","ping",null]`)
		assert.Equal(t, "second", c.pipe.recv(t)[3])
	})

	t.Run("typed handler decodes payload", func(t *testing.T) {
		t.Parallel()

		type message struct {
			Body string `json:"body"`
		}

		r := newTestRouter()
		defer r.Close()
		r.Topic("room:1", func(ch *socket.Channel) {
			ch.On("msg", socket.Typed(func(ctx context.Context, m message, conn *socket.Conn) error {
				return conn.Reply(ctx, socket.StatusOK, map[string]string{"echo": m.Body})
			}))
		})

		c := serve(t, r)
		c.pipe.send(t, `["1","1","room:1","msg",{"body":"hi"}]`)
		assert.Equal(t, map[string]any{
			"status":   "ok",
			"response": map[string]any{"echo": "hi"},
		}, c.pipe.recv(t)[4])

		c.pipe.send(t, `["1","2","room:1","msg","not an object"]`)
		reply := c.pipe.recv(t)[4].(map[string]any)
		assert.Equal(t, "error", reply["status"])
		assert.Contains(t, reply["response"].(map[string]any)["reason"], "invalid payload")
	})
}

func TestChannel_Dispatch(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	defer r.Close()

	conn, err := r.Accept(context.Background(), nil)
	require.NoError(t, err)

	ch := socket.NewChannel("room:direct")
	assert.Equal(t, "room:direct", ch.Topic())

	// Without an attached transport the implicit reply is skipped silently.
	require.NoError(t, ch.Dispatch(context.Background(), socket.EventJoin, nil, conn))
	assert.True(t, conn.InChannel("room:direct"))

	require.NoError(t, ch.Dispatch(context.Background(), socket.EventLeave, nil, conn))
	assert.False(t, conn.InChannel("room:direct"))

	boom := errors.New("boom")
	ch.On("fail", func(context.Context, json.RawMessage, *socket.Conn) error { return boom })
	assert.ErrorIs(t, ch.Dispatch(context.Background(), "fail", nil, conn), boom)
}
