package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dmitrymomot/realtime/core/socket"
)

var errEmptyMessage = errors.New("message body is empty")

type connectParams struct {
	User string `json:"user"`
}

type lobbyMessage struct {
	Body string `json:"body"`
}

// authenticate accepts any client that names itself.
func authenticate(_ context.Context, p connectParams, conn *socket.Conn) error {
	user := strings.TrimSpace(p.User)
	if user == "" {
		return nil
	}
	conn.Assign("user", user)
	conn.MarkJoined()
	return nil
}

func lobby(ch *socket.Channel) {
	ch.Join(func(ctx context.Context, _ json.RawMessage, conn *socket.Conn) error {
		return conn.Reply(ctx, socket.StatusOK, map[string]any{
			"id":   conn.ID(),
			"user": userOf(conn),
		})
	})

	ch.On("new_msg", socket.Typed(func(ctx context.Context, msg lobbyMessage, conn *socket.Conn) error {
		body := strings.TrimSpace(msg.Body)
		if body == "" {
			return errEmptyMessage
		}
		if err := conn.Broadcast(ctx, "new_msg", map[string]string{
			"user": userOf(conn),
			"body": body,
		}, true); err != nil {
			return err
		}
		return conn.Reply(ctx, socket.StatusOK, nil)
	}))

	ch.On("typing", func(ctx context.Context, _ json.RawMessage, conn *socket.Conn) error {
		return conn.Broadcast(ctx, "typing", map[string]string{"user": userOf(conn)}, true)
	})
}

func userOf(conn *socket.Conn) string {
	user, _ := conn.Assigned("user")
	s, _ := user.(string)
	return s
}
