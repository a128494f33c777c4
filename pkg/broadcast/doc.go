// Package broadcast provides a generic pub/sub fanout with pluggable backends.
//
// This package supports in-memory broadcasting with automatic cleanup and non-blocking
// message delivery so a slow consumer never stalls publishers or other consumers.
//
// # Architecture
//
// The package defines two main interfaces:
//   - Broadcaster: sends messages to multiple subscribers
//   - Subscriber: receives broadcast messages
//
// The design allows for pluggable backends (Redis, NATS, etc.) while providing
// a consistent API. Currently includes an in-memory implementation.
//
// # Usage
//
// Basic broadcasting:
//
//	// Create a broadcaster with buffer size of 100 messages per subscriber
//	broadcaster := broadcast.NewMemoryBroadcaster[string](100)
//	defer broadcaster.Close()
//
//	// Subscribe to messages
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	subscriber := broadcaster.Subscribe(ctx)
//	defer subscriber.Close()
//
//	// Start receiving messages in a goroutine
//	go func() {
//		for msg := range subscriber.Receive() {
//			fmt.Printf("Received: %s\n", msg.Data)
//		}
//	}()
//
//	// Send messages
//	broadcaster.Broadcast(ctx, broadcast.Message[string]{Data: "Hello, World!"})
//	broadcaster.Broadcast(ctx, broadcast.Message[string]{Data: "Another message"})
//
// # Memory Implementation
//
// MemoryBroadcaster provides an in-memory implementation with these characteristics:
//   - Non-blocking message delivery
//   - Automatic subscriber cleanup on context cancellation
//   - Graceful handling of slow consumers
//   - Thread-safe operations
//
// Slow Consumer Handling:
//
//	// If a subscriber's buffer is full, the oldest buffered message of that
//	// subscriber is dropped and the new one enqueued. The broadcast call never
//	// blocks. Dropped() reports the running total of evictions.
//
// # Message Types
//
// Messages are wrapped in a generic Message[T] struct:
//
//	type Message[T any] struct {
//		Data T
//	}
//
// This allows type-safe broadcasting of any data type.
//
// # Context Integration
//
// Subscriptions are automatically cleaned up when their context is cancelled:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	subscriber := broadcaster.Subscribe(ctx)
//	// Subscription will be automatically cleaned up after 30 seconds
//
// # Performance Characteristics
//
// - Message delivery is O(n) where n is the number of active subscribers
// - Subscribers only see messages broadcast after Subscribe returns (no replay)
// - Buffer sizes should be chosen based on expected message rates and processing speed
// - DefaultBufferSize (1024) is used when a non-positive size is given
//
// # Error Handling
//
// The package defines two errors:
//   - ErrBroadcasterClosed: Broadcast on a closed broadcaster
//   - ErrSubscriberClosed: Close on an already closed subscriber
//
// Operations on closed resources are safe and will not panic. Closing the
// broadcaster closes every subscriber's channel, which ends range loops.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use across multiple goroutines.
// The MemoryBroadcaster takes a read lock per broadcast, so concurrent publishers
// do not serialize; subscription changes take the write lock.
package broadcast
