package broadcast

import "errors"

var (
	// ErrBroadcasterClosed is returned when publishing to a closed broadcaster.
	ErrBroadcasterClosed = errors.New("broadcaster is closed")

	// ErrSubscriberClosed is returned when closing an already closed subscriber.
	ErrSubscriberClosed = errors.New("subscriber is closed")
)
