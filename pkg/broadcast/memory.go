package broadcast

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the per-subscriber buffer used when none is configured.
const DefaultBufferSize = 1024

// MemoryBroadcaster is an in-process Broadcaster.
//
// Every subscriber owns a bounded buffer. When a buffer is full the oldest
// undelivered message of that subscriber is discarded to make room, so
// publishers never block and one slow consumer never stalls the others.
type MemoryBroadcaster[T any] struct {
	mu         sync.RWMutex
	subs       map[*memorySubscriber[T]]struct{}
	bufferSize int
	closed     bool
	logger     *slog.Logger

	dropped atomic.Int64
}

// MemoryOption configures a MemoryBroadcaster.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report dropped messages.
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(c *memoryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewMemoryBroadcaster creates a broadcaster with the given per-subscriber
// buffer size. Non-positive sizes fall back to DefaultBufferSize.
func NewMemoryBroadcaster[T any](bufferSize int, opts ...MemoryOption) *MemoryBroadcaster[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	cfg := memoryConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &MemoryBroadcaster[T]{
		subs:       make(map[*memorySubscriber[T]]struct{}),
		bufferSize: bufferSize,
		logger:     cfg.logger,
	}
}

// Subscribe registers a subscriber that only observes messages broadcast
// after this call returns. Subscribing to a closed broadcaster yields a
// subscriber whose channel is already closed.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := &memorySubscriber[T]{
		ch:     make(chan Message[T], b.bufferSize),
		done:   make(chan struct{}),
		parent: b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.shutdown()
		return sub
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	return sub
}

// Broadcast delivers msg to every current subscriber without blocking.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBroadcasterClosed
	}

	for sub := range b.subs {
		if sub.deliver(msg) {
			b.dropped.Add(1)
			b.logger.DebugContext(ctx, "broadcast buffer full, dropped oldest message",
				slog.Int("buffer_size", b.bufferSize))
		}
	}

	return nil
}

// Close releases every subscriber. Calling Close more than once is safe.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*memorySubscriber[T]]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.shutdown()
	}

	b.logger.Info("broadcaster closed", slog.Int("subscribers", len(subs)))
	return nil
}

// Closed reports whether Close has been called.
func (b *MemoryBroadcaster[T]) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Subscribers reports the number of active subscribers.
func (b *MemoryBroadcaster[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped reports how many messages were discarded because a subscriber's
// buffer was full.
func (b *MemoryBroadcaster[T]) Dropped() int64 {
	return b.dropped.Load()
}

func (b *MemoryBroadcaster[T]) remove(sub *memorySubscriber[T]) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

type memorySubscriber[T any] struct {
	ch     chan Message[T]
	done   chan struct{}
	parent *MemoryBroadcaster[T]

	// mu serializes deliveries against shutdown so a send never races a close.
	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func (s *memorySubscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *memorySubscriber[T]) Close() error {
	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}

	s.parent.remove(s)
	s.shutdown()
	return nil
}

func (s *memorySubscriber[T]) shutdown() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		close(s.done)
	})
}

// deliver enqueues msg, evicting the oldest buffered message when full.
// It reports whether a message was evicted.
func (s *memorySubscriber[T]) deliver(msg Message[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	evicted := false
	for {
		select {
		case s.ch <- msg:
			return evicted
		default:
		}

		select {
		case <-s.ch:
			evicted = true
		default:
			// The consumer drained a slot between the two selects.
		}
	}
}
