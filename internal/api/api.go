// Package api exposes the rental support assistant over HTTP.
//
// It provides endpoints for submitting customer queries, attaching feedback
// to past interactions, and inspecting the template and category reference
// data. Handlers delegate all domain logic to the agent package.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fleetline/rentassist/internal/agent"
	"github.com/fleetline/rentassist/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// DefaultShutdownTimeout bounds how long an in-flight request may run once
// shutdown starts.
const DefaultShutdownTimeout = 10 * time.Second

// Opts holds configuration for the API server.
type Opts struct {
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		if addr != "" {
			o.Addr = addr
		}
	}
}

// Server wires HTTP handlers to the agent and store.
type Server struct {
	agent *agent.Agent
	store store.Store
	addr  string
}

// NewServer creates an API server over the given agent and store.
func NewServer(a *agent.Agent, st store.Store, opts ...Option) *Server {
	var o Opts
	o.Addr = DefaultAddr
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{agent: a, store: st, addr: o.Addr}
}

// Handler returns the server's routing table. Exposed separately so tests
// can drive it through httptest without opening a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.queryHandler)
	mux.HandleFunc("/feedback", s.feedbackHandler)
	mux.HandleFunc("/templates", s.templatesHandler)
	mux.HandleFunc("/categories", s.categoriesHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until the context is canceled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
