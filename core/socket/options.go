package socket

import (
	"log/slog"

	"github.com/dmitrymomot/realtime/pkg/broadcast"
)

// DefaultBusCapacity is the per-connection fanout buffer size.
const DefaultBusCapacity = broadcast.DefaultBufferSize

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger. Nil is ignored.
func WithLogger(log *slog.Logger) Option {
	return func(r *Router) {
		if log != nil {
			r.logger = log
		}
	}
}

// WithBusCapacity sets how many undelivered broadcasts a connection may lag
// behind before the oldest are dropped. Non-positive values are ignored.
func WithBusCapacity(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.busCapacity = n
		}
	}
}

// WithTopicFiltering restricts fanout to connections that joined the
// broadcast topic. By default every connection on the bus receives it.
func WithTopicFiltering() Option {
	return func(r *Router) {
		r.topicFiltering = true
	}
}

// WithMaxSendErrors closes a connection after n consecutive failed writes.
// Zero, the default, keeps connections open regardless of send failures.
func WithMaxSendErrors(n int) Option {
	return func(r *Router) {
		if n >= 0 {
			r.maxSendErrors = n
		}
	}
}
