package socket

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reserved events of the channel protocol.
const (
	EventJoin      = "phx_join"
	EventLeave     = "phx_leave"
	EventHeartbeat = "heartbeat"
	EventReply     = "phx_reply"
	EventError     = "phx_error"
	EventClose     = "phx_close"
)

// Reply statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Fanout actions carried on the bus. The spelling is part of the wire format.
const (
	actionBroadcast     = "boardcast"
	actionBroadcastFrom = "boardcast_from"
)

var jsonNull = json.RawMessage("null")

// Envelope is the unit exchanged over the transport, encoded as the JSON array
// [join_ref, ref, topic, event, payload]. Nil refs and topic encode as null.
type Envelope struct {
	JoinRef *string
	MsgRef  *string
	Topic   *string
	Event   string
	Payload json.RawMessage
}

// MarshalJSON encodes the envelope as a five element array.
func (e Envelope) MarshalJSON() ([]byte, error) {
	payload := e.Payload
	if len(payload) == 0 {
		payload = jsonNull
	}
	return json.Marshal([5]any{e.JoinRef, e.MsgRef, e.Topic, e.Event, payload})
}

// UnmarshalJSON decodes a five element array. Every shape violation is
// reported as ErrMalformedEnvelope.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if len(parts) != 5 {
		return fmt.Errorf("%w: expected 5 elements, got %d", ErrMalformedEnvelope, len(parts))
	}

	joinRef, err := optionalString(parts[0], "join_ref")
	if err != nil {
		return err
	}
	msgRef, err := optionalString(parts[1], "ref")
	if err != nil {
		return err
	}
	topic, err := optionalString(parts[2], "topic")
	if err != nil {
		return err
	}

	var event string
	if isNull(parts[3]) || json.Unmarshal(parts[3], &event) != nil {
		return fmt.Errorf("%w: event must be a string", ErrMalformedEnvelope)
	}

	*e = Envelope{
		JoinRef: joinRef,
		MsgRef:  msgRef,
		Topic:   topic,
		Event:   event,
		Payload: parts[4],
	}
	return nil
}

// DecodeEnvelope parses one inbound frame.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := env.UnmarshalJSON(data); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// EncodeEnvelope serializes env for the wire.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// replyPayload is the payload of a phx_reply envelope.
type replyPayload struct {
	Status   string `json:"status"`
	Response any    `json:"response"`
}

// fanout is the record published on the bus and consumed by every writer loop.
type fanout struct {
	Topic   string          `json:"topic"`
	Action  string          `json:"action"`
	From    *string         `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

func optionalString(raw json.RawMessage, field string) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %s must be a string or null", ErrMalformedEnvelope, field)
	}
	return &s, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull)
}

// isEmptyValue reports whether v should be replaced by a default in replies.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case json.RawMessage:
		return isNull(val)
	}
	return false
}

// toRaw converts an arbitrary value into a JSON payload.
func toRaw(v any) (json.RawMessage, error) {
	switch val := v.(type) {
	case nil:
		return jsonNull, nil
	case json.RawMessage:
		if len(val) == 0 {
			return jsonNull, nil
		}
		return val, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

func strPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
