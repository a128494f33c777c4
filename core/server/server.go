package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/realtime/core/logger"
)

// Server wraps http.Server with graceful shutdown and shutdown hooks.
// Safe for concurrent use.
type Server struct {
	mu             sync.RWMutex
	addr           string
	server         *http.Server
	listener       net.Listener
	logger         *slog.Logger
	shutdown       time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
	maxHeaderBytes int
	tlsConfig      *tls.Config
	hooks          []func()
	running        bool
}

// New creates a new Server with the given address and options.
// Defaults to a 30-second graceful shutdown timeout and a no-op logger.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:           addr,
		logger:         logger.Nop(),
		shutdown:       DefaultShutdownTimeout,
		readTimeout:    DefaultReadTimeout,
		writeTimeout:   DefaultWriteTimeout,
		idleTimeout:    DefaultIdleTimeout,
		maxHeaderBytes: DefaultMaxHeaderBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the address the server listens on once started, or the
// configured address before that.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Start binds the address and serves handler until the context is canceled
// or serving fails. Returns context.Err() when the context is canceled.
// Use Stop() for graceful shutdown.
func (s *Server) Start(ctx context.Context, handler http.Handler) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrListen, err)
	}

	s.server = &http.Server{
		Handler:        handler,
		ReadTimeout:    s.readTimeout,
		WriteTimeout:   s.writeTimeout,
		IdleTimeout:    s.idleTimeout,
		MaxHeaderBytes: s.maxHeaderBytes,
		TLSConfig:      s.tlsConfig,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
		BaseContext:    func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	// Hijacked websocket connections are invisible to Shutdown; the hooks
	// are how their owners learn to close them.
	for _, hook := range s.hooks {
		s.server.RegisterOnShutdown(hook)
	}
	s.listener = ln
	s.running = true
	srv := s.server
	hasTLS := s.tlsConfig != nil
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "starting server",
			slog.String("addr", ln.Addr().String()),
			slog.Bool("tls", hasTLS),
		)

		var err error
		if hasTLS {
			err = srv.ServeTLS(ln, "", "")
		} else {
			err = srv.Serve(ln)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Join(ErrServe, err)
		}
	}()

	select {
	case err := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop gracefully shuts down the server using the configured timeout.
// Returns immediately if the server is not running.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server gracefully", logger.Duration(s.shutdown))
	start := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.running = false

	if err != nil {
		s.logger.Error("server shutdown error", logger.Error(err))
		return errors.Join(ErrShutdown, err)
	}

	s.logger.Info("server shutdown complete", logger.Elapsed(start))
	return nil
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// The returned function starts the server and performs graceful shutdown
// when the context is canceled.
func (s *Server) Run(ctx context.Context, handler http.Handler) func() error {
	return func() error {
		err := s.Start(ctx, handler)
		if ctx.Err() == nil {
			return err
		}

		if stopErr := s.Stop(); stopErr != nil {
			s.logger.Error("failed to stop server during context cancellation", logger.Error(stopErr))
		}
		return nil
	}
}

// Run creates a server with default settings and runs it until ctx is canceled.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	return New(addr).Run(ctx, handler)()
}
