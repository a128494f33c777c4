package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// HandlerFunc handles one inbound event. payload is the raw JSON payload of
// the envelope and conn is the connection that sent it. Handlers for the same
// connection never run concurrently.
//
// Returning an error makes the server reply with status "error" and, for
// phx_join, rejects the channel join.
type HandlerFunc func(ctx context.Context, payload json.RawMessage, conn *Conn) error

// Typed adapts a handler that takes a decoded payload of type T.
// A null or missing payload yields the zero value of T.
//
// Example:
//
//	type NewMessage struct {
//	    Body string `json:"body"`
//	}
//
//	ch.On("new_msg", socket.Typed(func(ctx context.Context, msg NewMessage, conn *socket.Conn) error {
//	    return conn.Broadcast(ctx, "new_msg", msg, false)
//	}))
func Typed[T any](fn func(context.Context, T, *Conn) error) HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage, conn *Conn) error {
		var v T
		if !isNull(payload) {
			if err := json.Unmarshal(payload, &v); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}
		return fn(ctx, v, conn)
	}
}

// Registry maps event names to handlers. The last registration for a name wins.
// It is safe for concurrent use; lookups only take a read lock.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register stores fn under event. A nil fn removes the registration.
func (r *Registry) Register(event string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fn == nil {
		delete(r.handlers, event)
		return
	}
	r.handlers[event] = fn
}

// Lookup returns the handler registered for event.
func (r *Registry) Lookup(event string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.handlers[event]
	return fn, ok
}

// Call invokes the handler for event, if any, and waits for it to return.
// handled reports whether a handler was registered.
func (r *Registry) Call(ctx context.Context, event string, payload json.RawMessage, conn *Conn) (handled bool, err error) {
	fn, ok := r.Lookup(event)
	if !ok {
		return false, nil
	}
	return true, fn(ctx, payload, conn)
}

// Events returns the registered event names in sorted order.
func (r *Registry) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		events = append(events, name)
	}
	slices.Sort(events)
	return events
}
