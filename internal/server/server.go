package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultReadHeaderTimeout bounds how long a client may take to send headers.
	DefaultReadHeaderTimeout = 5 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown after context cancellation.
	DefaultShutdownTimeout = 10 * time.Second
)

// ErrAlreadyStarted is returned by [Server.Start] on a second call.
var ErrAlreadyStarted = errors.New("server already started")

// Options tunes the underlying [http.Server].
// Zero values select the package defaults.
type Options struct {
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server serves a single [http.Handler] on one TCP address.
//
// A Server is created with [New], bound by [Server.Start] and released by
// [Server.Stop] or by cancelling the context given to Start. It is not
// reusable after it has been stopped.
type Server struct {
	name    string
	addr    string
	handler http.Handler
	opts    Options
	logger  *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	done       chan struct{}
}

// New creates a [Server] for handler listening on addr (for example ":3000",
// or ":0" for an ephemeral port). name identifies the server in log records.
//
// The server is not started until [Server.Start] is called.
func New(name, addr string, handler http.Handler, opts Options, logger *slog.Logger) *Server {
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		name:    name,
		addr:    addr,
		handler: handler,
		opts:    opts,
		logger:  logger.With("server", name),
	}
}

// Start binds the listener and begins serving in a background goroutine.
//
// Start is non-blocking and returns once the port is bound. Cancelling ctx
// triggers a graceful shutdown bounded by the configured shutdown timeout.
//
// Returns an error if the address cannot be bound.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return ErrAlreadyStarted
	}

	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.addr, err)
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	done := make(chan struct{})

	s.httpServer = httpServer
	s.listener = ln
	s.done = done

	go func() {
		defer close(done)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Debug("listener bound", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight requests
// until ctx expires. Stop is a no-op on a server that was never started and
// may be called more than once.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	httpServer, done := s.httpServer, s.done
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down %s server: %w", s.name, err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the server has stopped serving, or nil
// if the server was never started.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Addr returns the bound listener address, or nil before [Server.Start].
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
