package broadcast

import "context"

// Message wraps a single broadcast payload.
type Message[T any] struct {
	Data T
}

// Broadcaster sends messages to every active subscriber.
type Broadcaster[T any] interface {
	// Subscribe registers a new subscriber. The subscription is released
	// when ctx is cancelled, when the subscriber is closed, or when the
	// broadcaster itself is closed.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to all subscribers registered at call time.
	// It never blocks on slow subscribers.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close releases all subscribers and rejects further broadcasts.
	Close() error
}

// Subscriber receives broadcast messages.
type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed once the
	// subscription ends.
	Receive() <-chan Message[T]

	// Close ends the subscription.
	Close() error
}
