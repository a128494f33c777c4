package socket_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/realtime/core/socket"
)

const waitTimeout = 2 * time.Second

var errBrokenPipe = errors.New("broken pipe")

// pipeTransport is an in-memory Transport driven by the test as the client.
type pipeTransport struct {
	in         chan []byte
	out        chan []byte
	closed     chan struct{}
	once       sync.Once
	failWrites atomic.Bool
}

func newPipeTransport() *pipeTransport {
	return &pipeTransport{
		in:     make(chan []byte, 256),
		out:    make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

func (p *pipeTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	case <-p.closed:
		return nil, socket.ErrTransportClosed
	}
}

func (p *pipeTransport) WriteMessage(ctx context.Context, data []byte) error {
	if p.failWrites.Load() {
		return errBrokenPipe
	}
	select {
	case <-p.closed:
		return socket.ErrTransportClosed
	case p.out <- data:
		return nil
	}
}

func (p *pipeTransport) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeTransport) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

// send delivers a raw frame from the client.
func (p *pipeTransport) send(t *testing.T, frame string) {
	t.Helper()
	select {
	case p.in <- []byte(frame):
	case <-time.After(waitTimeout):
		t.Fatal("timed out sending frame")
	}
}

// recv returns the next frame written to the client, decoded as a JSON array.
func (p *pipeTransport) recv(t *testing.T) []any {
	t.Helper()
	select {
	case data := <-p.out:
		var frame []any
		require.NoError(t, json.Unmarshal(data, &frame), "frame: %s", data)
		return frame
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for frame")
	}
	return nil
}

// expectSilence asserts that nothing is written to the client for d.
func (p *pipeTransport) expectSilence(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case data := <-p.out:
		t.Fatalf("unexpected frame: %s", data)
	case <-time.After(d):
	}
}

type servedConn struct {
	conn *socket.Conn
	pipe *pipeTransport
	done chan error
}

// wait blocks until Serve returns and yields its error.
func (s *servedConn) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-s.done:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for Serve to return")
	}
	return nil
}

func acceptAll(ctx context.Context, _ json.RawMessage, conn *socket.Conn) error {
	conn.MarkJoined()
	return nil
}

func newTestRouter(opts ...socket.Option) *socket.Router {
	r := socket.NewRouter(opts...)
	r.Join(acceptAll)
	return r
}

// serve accepts and serves a connection over an in-memory transport and
// waits until it is active.
func serve(t *testing.T, r *socket.Router) *servedConn {
	t.Helper()

	conn, err := r.Accept(context.Background(), nil)
	require.NoError(t, err)

	sc := &servedConn{
		conn: conn,
		pipe: newPipeTransport(),
		done: make(chan error, 1),
	}
	go func() {
		sc.done <- r.Serve(context.Background(), conn, sc.pipe)
	}()

	require.Eventually(t, func() bool {
		return conn.State() == socket.StateActive
	}, waitTimeout, time.Millisecond)

	t.Cleanup(func() { _ = sc.pipe.Close() })
	return sc
}

func replyOK(joinRef, ref, topic any) []any {
	return []any{joinRef, ref, topic, "phx_reply", map[string]any{"status": "ok", "response": map[string]any{}}}
}
