package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dmitrymomot/realtime/core/logger"
	"github.com/dmitrymomot/realtime/pkg/broadcast"
)

// State is the lifecycle stage of a connection.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the server-side state of one client connection.
//
// A Conn is created by Router.Accept and driven by Router.Serve. Handlers
// receive the same *Conn for every event of that client; all methods are
// safe for concurrent use.
type Conn struct {
	id string

	mu       sync.RWMutex
	joined   bool
	topic    *string
	joinRef  *string
	msgRef   *string
	assigns  map[string]any
	channels map[string]struct{}
	cancel   context.CancelFunc

	// writeMu keeps frames from the reader and writer loops from interleaving.
	writeMu   sync.Mutex
	transport Transport

	bus           broadcast.Broadcaster[[]byte]
	logger        *slog.Logger
	maxSendErrors int
	sendErrors    atomic.Int32
	state         atomic.Int32
	served        atomic.Bool
}

func newConn(bus broadcast.Broadcaster[[]byte], log *slog.Logger, maxSendErrors int) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:            id,
		assigns:       make(map[string]any),
		channels:      make(map[string]struct{}),
		bus:           bus,
		logger:        log.With(logger.ConnID(id)),
		maxSendErrors: maxSendErrors,
	}
}

// ID returns the unique connection id.
func (c *Conn) ID() string {
	return c.id
}

// State returns the current lifecycle stage.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Assign stores value under key in the connection's scratch data.
func (c *Conn) Assign(key string, value any) {
	c.mu.Lock()
	c.assigns[key] = value
	c.mu.Unlock()
}

// Assigns returns a copy of the scratch data.
func (c *Conn) Assigns() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.assigns)
}

// Assigned returns the value stored under key.
func (c *Conn) Assigned(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.assigns[key]
	return v, ok
}

// MarkJoined accepts the connection during the connect handshake.
func (c *Conn) MarkJoined() {
	c.mu.Lock()
	c.joined = true
	c.mu.Unlock()
}

// Joined reports whether the connect handshake accepted the connection.
func (c *Conn) Joined() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.joined
}

// Topic returns the topic of the last processed envelope, or "" when it was null.
func (c *Conn) Topic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deref(c.topic)
}

// JoinRef returns the join reference of the last processed envelope.
func (c *Conn) JoinRef() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deref(c.joinRef)
}

// MsgRef returns the message reference of the last processed envelope.
func (c *Conn) MsgRef() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deref(c.msgRef)
}

// Channels returns the joined topics in sorted order.
func (c *Conn) Channels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.channels))
}

// InChannel reports whether the connection has joined topic.
func (c *Conn) InChannel(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[topic]
	return ok
}

// Send encodes v as JSON and writes it as one frame.
//
// Failures are logged and returned; the connection stays open unless the
// router was configured with WithMaxSendErrors and the limit of consecutive
// failures is reached. Before the transport is attached Send is a no-op.
func (c *Conn) Send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return c.write(ctx, data)
}

// Push sends event with message to this client, echoing the current refs and topic.
func (c *Conn) Push(ctx context.Context, event string, message any) error {
	payload, err := toRaw(message)
	if err != nil {
		return err
	}

	c.mu.RLock()
	env := Envelope{
		JoinRef: c.joinRef,
		MsgRef:  c.msgRef,
		Topic:   c.topic,
		Event:   event,
		Payload: payload,
	}
	c.mu.RUnlock()

	return c.Send(ctx, env)
}

// Reply acknowledges the last processed envelope with a phx_reply.
// A nil response is sent as an empty object.
func (c *Conn) Reply(ctx context.Context, status string, response any) error {
	if isEmptyValue(response) {
		response = map[string]any{}
	}
	return c.Push(ctx, EventReply, replyPayload{Status: status, Response: response})
}

// Broadcast publishes event to every connection on the bus under the current
// topic. With excludeSelf the publisher does not receive its own message.
func (c *Conn) Broadcast(ctx context.Context, event string, message any, excludeSelf bool) error {
	c.mu.RLock()
	topic := c.topic
	c.mu.RUnlock()

	return c.publish(ctx, topic, event, message, excludeSelf)
}

// BroadcastTo is like Broadcast for an explicit topic.
func (c *Conn) BroadcastTo(ctx context.Context, topic, event string, message any, excludeSelf bool) error {
	return c.publish(ctx, strPtr(topic), event, message, excludeSelf)
}

// Close ends the connection's reader and writer loops. It is a no-op until
// the connection is being served.
func (c *Conn) Close() {
	c.mu.RLock()
	cancel := c.cancel
	c.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Conn) publish(ctx context.Context, topic *string, event string, message any, excludeSelf bool) error {
	c.mu.RLock()
	joinRef := c.joinRef
	c.mu.RUnlock()

	var from *string
	if excludeSelf {
		from = strPtr(c.id)
	}

	return publish(ctx, c.bus, joinRef, topic, from, event, message)
}

// publish composes a fanout record and hands it to the bus.
func publish(ctx context.Context, bus broadcast.Broadcaster[[]byte], joinRef, topic, from *string, event string, message any) error {
	payload, err := toRaw(message)
	if err != nil {
		return err
	}

	env, err := EncodeEnvelope(Envelope{
		JoinRef: joinRef,
		Topic:   topic,
		Event:   event,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("encode broadcast: %w", err)
	}

	action := actionBroadcast
	if from != nil {
		action = actionBroadcastFrom
	}

	data, err := json.Marshal(fanout{
		Topic:   deref(topic),
		Action:  action,
		From:    from,
		Payload: env,
	})
	if err != nil {
		return fmt.Errorf("encode broadcast: %w", err)
	}

	if err := bus.Broadcast(ctx, broadcast.Message[[]byte]{Data: data}); err != nil {
		return fmt.Errorf("publish broadcast: %w", err)
	}
	return nil
}

func (c *Conn) write(ctx context.Context, data []byte) error {
	c.mu.RLock()
	t := c.transport
	c.mu.RUnlock()

	if t == nil {
		c.logger.DebugContext(ctx, "send skipped, transport not attached")
		return nil
	}

	c.writeMu.Lock()
	err := t.WriteMessage(ctx, data)
	c.writeMu.Unlock()

	if err == nil {
		c.sendErrors.Store(0)
		return nil
	}

	failures := int(c.sendErrors.Add(1))
	c.logger.ErrorContext(ctx, "failed to send frame",
		logger.Error(err),
		logger.Count("consecutive_failures", failures),
	)

	if c.maxSendErrors > 0 && failures >= c.maxSendErrors {
		c.logger.WarnContext(ctx, "closing connection after repeated send failures",
			logger.Count("max_send_errors", c.maxSendErrors),
		)
		c.Close()
	}

	return fmt.Errorf("%w: %w", ErrSendFailed, err)
}

// update stores the refs and topic of an inbound envelope.
func (c *Conn) update(env Envelope) {
	c.mu.Lock()
	c.joinRef = env.JoinRef
	c.msgRef = env.MsgRef
	c.topic = env.Topic
	c.mu.Unlock()
}

func (c *Conn) attach(t Transport, cancel context.CancelFunc) {
	c.mu.Lock()
	c.transport = t
	c.cancel = cancel
	c.mu.Unlock()
}

func (c *Conn) detach() {
	c.mu.Lock()
	c.transport = nil
	c.cancel = nil
	c.mu.Unlock()
}

func (c *Conn) joinChannel(topic string) {
	c.mu.Lock()
	c.channels[topic] = struct{}{}
	c.mu.Unlock()
}

func (c *Conn) leaveChannel(topic string) {
	c.mu.Lock()
	delete(c.channels, topic)
	c.mu.Unlock()
}
