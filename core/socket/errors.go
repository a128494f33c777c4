package socket

import "errors"

var (
	// ErrMalformedEnvelope is returned when an inbound frame is not a valid
	// [join_ref, ref, topic, event, payload] array.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrJoinRejected is returned when the connect handshake did not mark the
	// connection as joined.
	ErrJoinRejected = errors.New("join rejected")

	// ErrTransportClosed signals a normal closure of the underlying transport.
	ErrTransportClosed = errors.New("transport closed")

	// ErrSendFailed wraps transport write failures.
	ErrSendFailed = errors.New("failed to send frame")

	// ErrInvalidPayload is returned by typed handlers when the payload cannot
	// be decoded into the handler's type.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrAlreadyServed is returned when Serve is called twice for a connection.
	ErrAlreadyServed = errors.New("connection already served")
)
