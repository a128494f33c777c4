package socket

import (
	"context"
	"encoding/json"
)

// Channel holds the event handlers of one topic.
//
// Example:
//
//	room := socket.NewChannel("room:lobby")
//	room.Join(func(ctx context.Context, payload json.RawMessage, conn *socket.Conn) error {
//	    return conn.Reply(ctx, socket.StatusOK, map[string]string{"id": conn.ID()})
//	})
//	room.On("new_msg", func(ctx context.Context, payload json.RawMessage, conn *socket.Conn) error {
//	    return conn.Broadcast(ctx, "new_msg", payload, false)
//	})
//	router.Channel(room)
type Channel struct {
	topic    string
	handlers *Registry
}

// NewChannel creates a channel for topic with no handlers.
func NewChannel(topic string) *Channel {
	return &Channel{
		topic:    topic,
		handlers: NewRegistry(),
	}
}

// Topic returns the channel topic.
func (ch *Channel) Topic() string {
	return ch.topic
}

// On registers fn for event. A later registration for the same event replaces it.
func (ch *Channel) On(event string, fn HandlerFunc) {
	ch.handlers.Register(event, fn)
}

// Join registers the phx_join handler.
func (ch *Channel) Join(fn HandlerFunc) {
	ch.On(EventJoin, fn)
}

// Leave registers the phx_leave handler.
func (ch *Channel) Leave(fn HandlerFunc) {
	ch.On(EventLeave, fn)
}

// Events returns the event names with a registered handler.
func (ch *Channel) Events() []string {
	return ch.handlers.Events()
}

// Dispatch runs the handler for event and then applies membership changes.
//
//   - A registered handler runs to completion first. It owns the success reply.
//     If it fails, the client gets an "error" reply with the failure reason and
//     a phx_join does not add membership.
//   - phx_join adds the topic to the connection, phx_leave removes it.
//   - phx_join and phx_leave without a handler are acknowledged with an "ok"
//     reply and an empty response.
//   - Other events without a handler are ignored.
func (ch *Channel) Dispatch(ctx context.Context, event string, payload json.RawMessage, conn *Conn) error {
	handled, err := ch.handlers.Call(ctx, event, payload, conn)
	if err != nil {
		if event == EventLeave {
			conn.leaveChannel(ch.topic)
		}
		_ = conn.Reply(ctx, StatusError, map[string]string{"reason": err.Error()})
		return err
	}

	switch event {
	case EventJoin:
		conn.joinChannel(ch.topic)
	case EventLeave:
		conn.leaveChannel(ch.topic)
	default:
		return nil
	}

	if !handled {
		// Send failures are already reported by the connection.
		_ = conn.Reply(ctx, StatusOK, nil)
	}
	return nil
}
