package socket

import "context"

// Transport is a negotiated, message-oriented duplex stream.
//
// ReadMessage blocks until one frame arrives. It must return an error wrapping
// ErrTransportClosed (or io.EOF) on orderly closure. Close unblocks a pending
// ReadMessage and must be safe to call more than once. WriteMessage is never
// called concurrently by this package.
type Transport interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close() error
}
