// Package server exposes the todo store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/todod/internal/core/config"
	"github.com/colonyops/todod/internal/core/logging"
	"github.com/colonyops/todod/internal/core/todo"
)

type Server struct {
	cfg        config.Server
	store      *todo.Store
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener
	logger     zerolog.Logger
	errc       chan error
}

// New builds a server for store. The store is shared with the caller and
// may be inspected while the server runs.
func New(cfg config.Server, store *todo.Store) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logging.Component("server"),
		errc:   make(chan error, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /getTodos", s.handleList)
	mux.HandleFunc("POST /addTodo", s.handleAdd)
	mux.HandleFunc("PUT /updateTodo/{id}", s.handleToggle)
	mux.HandleFunc("DELETE /deleteTodo/{id}", s.handleRemove)

	s.handler = withRequestID(s.withAccessLog(s.withRecovery(mux)))

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the configured address and serves in the background. Request
// contexts carry the values of ctx but are not cancelled with it, so
// in-flight requests can finish during Shutdown.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	s.httpServer.BaseContext = baseContext(ctx)

	s.logger.Info().
		Str("addr", listener.Addr().String()).
		Str("id_policy", string(s.store.Policy())).
		Msg("starting todo server")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("todo server stopped serving")
			s.errc <- err
		}
	}()

	select {
	case err := <-s.errc:
		return fmt.Errorf("todo server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Err receives the error that stopped the server after a successful Start.
// Nothing is sent on a clean Shutdown.
func (s *Server) Err() <-chan error {
	return s.errc
}

func baseContext(ctx context.Context) func(net.Listener) context.Context {
	base := context.WithoutCancel(ctx)
	return func(net.Listener) context.Context { return base }
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down todo server")
	return s.httpServer.Shutdown(ctx)
}
