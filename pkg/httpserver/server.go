package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/tillkit/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithListener serves on an existing listener instead of Config.Addr.
func WithListener(ln net.Listener) Option {
	return func(s *Server) {
		s.ln = ln
	}
}

// Server runs an http.Server until its context ends, then shuts it down
// within Config.ShutdownTimeout.
type Server struct {
	cfg Config
	log *slog.Logger
	ln  net.Listener

	mu      sync.Mutex
	srv     *http.Server
	addr    net.Addr
	started chan struct{}
}

// New creates a Server from cfg. Zero timeouts are left unset; a zero
// shutdown timeout falls back to five seconds.
func New(cfg Config, opts ...Option) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		log:     logger.Discard(),
		started: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves handler and blocks until ctx is done or the listener fails.
// A graceful stop returns nil.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}

	ln := s.ln
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.cfg.Addr); err != nil {
			s.mu.Unlock()
			return errors.Join(ErrStart, err)
		}
	}

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.srv = srv
	s.addr = ln.Addr()
	close(s.started)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "http server listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Join(ErrStart, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	<-errCh
	s.log.InfoContext(ctx, "http server stopped")

	if err != nil {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}

// Addr blocks until Run has bound the listener and returns its address.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.started:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
