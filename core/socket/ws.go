package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/realtime/core/logger"
)

const closeGracePeriod = time.Second

type wsConfig struct {
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	writeTimeout   time.Duration
	readLimit      int64
	onError        func(context.Context, error)
}

// WSOption configures the websocket endpoint returned by Router.Handler.
type WSOption func(*wsConfig)

func WithWSReadBuffer(size int) WSOption {
	return func(c *wsConfig) {
		c.upgrader.ReadBufferSize = size
	}
}

func WithWSWriteBuffer(size int) WSOption {
	return func(c *wsConfig) {
		c.upgrader.WriteBufferSize = size
	}
}

func WithWSHandshakeTimeout(timeout time.Duration) WSOption {
	return func(c *wsConfig) {
		c.upgrader.HandshakeTimeout = timeout
	}
}

func WithWSOriginCheck(fn func(r *http.Request) bool) WSOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = fn
	}
}

func WithWSAllowAnyOrigin() WSOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

// WithWSAllowedOrigins accepts upgrades whose Origin header is one of origins.
// A "*" entry allows any origin.
func WithWSAllowedOrigins(origins ...string) WSOption {
	return func(c *wsConfig) {
		if slices.Contains(origins, "*") {
			WithWSAllowAnyOrigin()(c)
			return
		}
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(origins, r.Header.Get("Origin"))
		}
	}
}

func WithWSSubprotocols(protocols ...string) WSOption {
	return func(c *wsConfig) {
		c.upgrader.Subprotocols = protocols
	}
}

func WithWSUpgradeHeaders(header http.Header) WSOption {
	return func(c *wsConfig) {
		c.responseHeader = header
	}
}

// WithWSWriteTimeout bounds each frame write.
func WithWSWriteTimeout(timeout time.Duration) WSOption {
	return func(c *wsConfig) {
		c.writeTimeout = timeout
	}
}

// WithWSReadLimit caps the size of an inbound frame in bytes.
func WithWSReadLimit(limit int64) WSOption {
	return func(c *wsConfig) {
		c.readLimit = limit
	}
}

func WithWSErrorHandler(fn func(context.Context, error)) WSOption {
	return func(c *wsConfig) {
		c.onError = fn
	}
}

// Handler returns the websocket endpoint. Query parameters become the connect
// params (a JSON object of strings, or string arrays for repeated keys). A
// rejected handshake answers 400 without upgrading.
func (r *Router) Handler(opts ...WSOption) http.Handler {
	cfg := &wsConfig{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		params, err := json.Marshal(queryParams(req.URL.Query()))
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		conn, err := r.Accept(ctx, params)
		if err != nil {
			r.logger.InfoContext(ctx, "websocket connect rejected",
				logger.RemoteAddr(req.RemoteAddr),
				logger.Error(err),
			)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		ws, err := cfg.upgrader.Upgrade(w, req, cfg.responseHeader)
		if err != nil {
			// The upgrader has already written the HTTP error.
			r.logger.WarnContext(ctx, "websocket upgrade failed",
				logger.RemoteAddr(req.RemoteAddr),
				logger.Error(err),
			)
			if cfg.onError != nil {
				cfg.onError(ctx, err)
			}
			return
		}
		if cfg.readLimit > 0 {
			ws.SetReadLimit(cfg.readLimit)
		}

		if err := r.Serve(ctx, conn, NewWSTransport(ws, cfg.writeTimeout)); err != nil && cfg.onError != nil {
			cfg.onError(ctx, err)
		}
	})
}

func queryParams(values url.Values) map[string]any {
	params := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			params[key] = vals[0]
			continue
		}
		params[key] = vals
	}
	return params
}

type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

// NewWSTransport adapts a gorilla websocket connection. Frames are written as
// text messages. A positive writeTimeout bounds every write.
func NewWSTransport(conn *websocket.Conn, writeTimeout time.Duration) Transport {
	return &wsTransport{conn: conn, writeTimeout: writeTimeout}
}

func (t *wsTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || errors.Is(err, net.ErrClosed) {
				return nil, fmt.Errorf("%w: %w", ErrTransportClosed, err)
			}
			return nil, err
		}
		if msgType == websocket.TextMessage || msgType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (t *wsTransport) WriteMessage(ctx context.Context, data []byte) error {
	var deadline time.Time
	if t.writeTimeout > 0 {
		deadline = time.Now().Add(t.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
