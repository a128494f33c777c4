package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/realtime/core/logger"
	"github.com/dmitrymomot/realtime/pkg/broadcast"
)

// connectEvent is the registry key of the connect handshake handler.
const connectEvent = "join"

// Router owns the topic registry, the connect handshake and the broadcast bus.
//
// Example:
//
//	router := socket.NewRouter(socket.WithLogger(log))
//	defer router.Close()
//
//	router.Join(func(ctx context.Context, params json.RawMessage, conn *socket.Conn) error {
//	    conn.MarkJoined()
//	    return nil
//	})
//	router.Topic("room:lobby", func(ch *socket.Channel) {
//	    ch.On("new_msg", handleNewMessage)
//	})
//
//	http.Handle("/socket/websocket", router.Handler())
type Router struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	handlers *Registry
	bus      *broadcast.MemoryBroadcaster[[]byte]
	logger   *slog.Logger

	busCapacity    int
	topicFiltering bool
	maxSendErrors  int

	active atomic.Int64
}

// NewRouter creates a router with its own broadcast bus.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		channels:    make(map[string]*Channel),
		handlers:    NewRegistry(),
		logger:      logger.Nop(),
		busCapacity: DefaultBusCapacity,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.bus = broadcast.NewMemoryBroadcaster[[]byte](r.busCapacity,
		broadcast.WithLogger(r.logger.With(logger.Component("bus"))),
	)

	return r
}

// Channel registers ch under its topic, replacing any previous channel.
func (r *Router) Channel(ch *Channel) {
	r.mu.Lock()
	r.channels[ch.Topic()] = ch
	r.mu.Unlock()
}

// Topic creates a channel for topic, lets build register its handlers and
// registers it.
func (r *Router) Topic(topic string, build func(*Channel)) *Channel {
	ch := NewChannel(topic)
	if build != nil {
		build(ch)
	}
	r.Channel(ch)
	return ch
}

// Lookup returns the channel registered for topic.
func (r *Router) Lookup(topic string) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[topic]
	return ch, ok
}

// Topics returns the registered topics in sorted order.
func (r *Router) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.channels))
	for topic := range r.channels {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics
}

// Join registers the connect handshake handler. It runs once per client
// before the transport is upgraded and must call conn.MarkJoined to accept.
func (r *Router) Join(fn HandlerFunc) {
	r.handlers.Register(connectEvent, fn)
}

// Accept runs the connect handshake for a new client. params are the
// connect parameters as a JSON object. The returned connection is ready to
// be passed to Serve.
//
// ErrJoinRejected is returned when no handshake handler is registered, when
// it fails, or when it did not call MarkJoined.
func (r *Router) Accept(ctx context.Context, params json.RawMessage) (*Conn, error) {
	conn := newConn(r.bus, r.logger, r.maxSendErrors)

	if isNull(params) {
		params = json.RawMessage("{}")
	}

	handled, err := r.handlers.Call(ctx, connectEvent, params, conn)
	if err != nil {
		r.logger.DebugContext(ctx, "connect handshake failed",
			logger.ConnID(conn.ID()),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrJoinRejected, err)
	}
	if !handled || !conn.Joined() {
		r.logger.DebugContext(ctx, "connect handshake rejected", logger.ConnID(conn.ID()))
		return nil, ErrJoinRejected
	}

	return conn, nil
}

// Broadcast publishes a server-originated event to every connection.
func (r *Router) Broadcast(ctx context.Context, topic, event string, message any) error {
	return publish(ctx, r.bus, nil, strPtr(topic), nil, event, message)
}

// Connections reports how many connections are being served.
func (r *Router) Connections() int {
	return int(r.active.Load())
}

// Close shuts down the broadcast bus. Every served connection ends once its
// writer loop observes the closed subscription.
func (r *Router) Close() error {
	return r.bus.Close()
}

// Healthcheck fails once the router has been closed. Its signature fits
// health.Readiness.
func (r *Router) Healthcheck(context.Context) error {
	if r.bus.Closed() {
		return broadcast.ErrBroadcasterClosed
	}
	return nil
}

// Dropped reports how many fanout messages were discarded for slow connections.
func (r *Router) Dropped() int64 {
	return r.bus.Dropped()
}

var _ io.Closer = (*Router)(nil)
