// Package socket implements the server side of a Phoenix-style channel protocol:
// many topic-scoped channels multiplexed over one persistent connection per
// client, with a process-local broadcast bus for fanout.
//
// # Wire Format
//
// Every frame is a JSON array of five elements:
//
//	[join_ref, ref, topic, event, payload]
//
// join_ref, ref and topic are strings or null, event is a string and payload is
// any JSON value. Replies use the reserved phx_reply event:
//
//	["1", "1", "room:lobby", "phx_reply", {"status": "ok", "response": {}}]
//
// The refs and topic of the last inbound frame are echoed back verbatim.
//
// # Architecture
//
//   - Router: topic registry, connect handshake and broadcast bus owner
//   - Channel: event handlers of one topic
//   - Conn: per-client state (id, refs, assigns, joined topics) and send surface
//   - Transport: negotiated duplex stream; NewWSTransport adapts gorilla/websocket
//
// # Usage
//
//	router := socket.NewRouter(socket.WithLogger(log))
//	defer router.Close()
//
//	// Connect handshake: runs before the upgrade, must call MarkJoined.
//	router.Join(func(ctx context.Context, params json.RawMessage, conn *socket.Conn) error {
//		var p struct {
//			User string `json:"user"`
//		}
//		if err := json.Unmarshal(params, &p); err != nil || p.User == "" {
//			return nil // not joined, the upgrade is refused with 400
//		}
//		conn.Assign("user", p.User)
//		conn.MarkJoined()
//		return nil
//	})
//
//	router.Topic("room:lobby", func(ch *socket.Channel) {
//		ch.Join(func(ctx context.Context, _ json.RawMessage, conn *socket.Conn) error {
//			return conn.Reply(ctx, socket.StatusOK, nil)
//		})
//		ch.On("new_msg", func(ctx context.Context, payload json.RawMessage, conn *socket.Conn) error {
//			return conn.Broadcast(ctx, "new_msg", payload, false)
//		})
//	})
//
//	mux := http.NewServeMux()
//	mux.Handle("/socket/websocket", router.Handler(socket.WithWSAllowAnyOrigin()))
//
// # Connection Lifecycle
//
// A connection moves through connecting, active and closed. Router.Accept runs
// the handshake; Router.Serve attaches the transport, subscribes to the bus and
// runs two loops:
//
//   - the reader decodes frames, answers heartbeat directly and dispatches
//     everything else to the channel registered for the frame's topic
//     (frames for unknown topics are dropped)
//   - the writer forwards bus messages to the client, skipping messages the
//     connection published with excludeSelf
//
// When either loop stops the other is cancelled and the transport is closed.
// A malformed frame ends the connection; it never affects other connections.
//
// # Channel Membership
//
// phx_join adds the topic to the connection and phx_leave removes it, after the
// registered handler (if any) returned. A handler error is answered with an
// "error" reply and prevents the join. Without a handler, phx_join and
// phx_leave are acknowledged with an "ok" reply.
//
// # Broadcasting
//
// Conn.Broadcast publishes to the bus of the router. Every active connection
// receives it unless the router uses WithTopicFiltering, in which case only
// connections that joined the topic do. The bus never blocks publishers: a
// connection that falls more than the bus capacity behind loses its oldest
// undelivered messages.
//
// # Ordering
//
// Inbound frames of one connection are handled strictly in order, one handler
// at a time. Each connection sees broadcasts in publish order; there is no
// ordering across connections.
package socket
