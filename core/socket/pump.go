package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/realtime/core/logger"
	"github.com/dmitrymomot/realtime/pkg/broadcast"
)

// Serve drives an accepted connection over t until either side ends.
//
// It attaches the transport, subscribes to the bus and runs a reader and a
// writer loop. Whichever loop stops first stops the other; Serve returns once
// both have returned and the transport is closed. Orderly closure returns nil;
// a malformed inbound frame returns an error wrapping ErrMalformedEnvelope.
func (r *Router) Serve(ctx context.Context, conn *Conn, t Transport) error {
	if !conn.Joined() {
		return ErrJoinRejected
	}
	if !conn.served.CompareAndSwap(false, true) {
		return ErrAlreadyServed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := r.bus.Subscribe(ctx)
	conn.attach(t, cancel)
	conn.state.Store(int32(StateActive))

	// Closing the transport unblocks a reader parked in ReadMessage.
	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	r.active.Add(1)
	defer r.active.Add(-1)

	start := time.Now()
	conn.logger.InfoContext(ctx, "connection active")

	var g errgroup.Group
	g.Go(func() error {
		defer cancel()
		return r.readLoop(ctx, conn, t)
	})
	g.Go(func() error {
		defer cancel()
		return r.writeLoop(ctx, conn, sub)
	})
	err := g.Wait()

	_ = t.Close()
	_ = sub.Close()
	conn.detach()
	conn.state.Store(int32(StateClosed))

	conn.logger.InfoContext(ctx, "connection closed",
		logger.Elapsed(start),
		logger.Error(err),
	)
	return err
}

func (r *Router) readLoop(ctx context.Context, conn *Conn, t Transport) error {
	for {
		data, err := t.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || isClosed(err) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		env, err := DecodeEnvelope(data)
		if err != nil {
			conn.logger.WarnContext(ctx, "closing connection on malformed frame",
				logger.Error(err),
				logger.Size(len(data)),
			)
			return err
		}

		r.handle(ctx, conn, env)
	}
}

// handle processes one inbound envelope. It returns only after the handler
// finished, which keeps per-connection events strictly ordered.
func (r *Router) handle(ctx context.Context, conn *Conn, env Envelope) {
	conn.update(env)

	if env.Event == EventHeartbeat {
		_ = conn.Reply(ctx, StatusOK, nil)
		return
	}

	topic := deref(env.Topic)
	ch, ok := r.Lookup(topic)
	if env.Topic == nil || !ok {
		conn.logger.DebugContext(ctx, "dropping envelope for unknown topic",
			logger.Topic(topic),
			logger.Event(env.Event),
		)
		return
	}

	if err := ch.Dispatch(ctx, env.Event, env.Payload, conn); err != nil {
		conn.logger.WarnContext(ctx, "event handler failed",
			logger.Topic(topic),
			logger.Event(env.Event),
			logger.Refs(deref(env.JoinRef), deref(env.MsgRef)),
			logger.Error(err),
		)
	}
}

func (r *Router) writeLoop(ctx context.Context, conn *Conn, sub broadcast.Subscriber[[]byte]) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Receive():
			if !ok {
				return nil
			}

			var rec fanout
			if err := json.Unmarshal(msg.Data, &rec); err != nil {
				conn.logger.ErrorContext(ctx, "skipping undecodable fanout record", logger.Error(err))
				continue
			}
			if !r.deliverable(conn, rec) {
				continue
			}

			_ = conn.write(ctx, rec.Payload)
		}
	}
}

// deliverable decides whether a fanout record goes out on conn.
func (r *Router) deliverable(conn *Conn, rec fanout) bool {
	switch rec.Action {
	case actionBroadcast:
	case actionBroadcastFrom:
		if rec.From != nil && *rec.From == conn.ID() {
			return false
		}
	default:
		return false
	}

	if r.topicFiltering && !conn.InChannel(rec.Topic) {
		return false
	}
	return true
}

func isClosed(err error) bool {
	return errors.Is(err, ErrTransportClosed) || errors.Is(err, io.EOF)
}
