// Package server exposes the ledger over HTTP: read-only queries of the
// accounting state, the event journal and a transaction submission endpoint.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/tx"
)

// Engine applies transactions and exposes the committed state.
type Engine interface {
	Apply(ctx context.Context, t tx.Transaction) tx.ApplyResult
	View() tx.LedgerView
}

// Journal is the read side of the event journal.
type Journal interface {
	List(ctx context.Context, from uint64, limit int) ([]events.Record, error)
	Get(ctx context.Context, seq uint64) (events.Record, error)
	NextSeq() uint64
	Subscribe(fn func([]events.Record)) (cancel func())
}

type Config struct {
	Listen       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Logger  *slog.Logger
	Engine  Engine
	Journal Journal // optional
}

func (cfg *Config) Validate() error {
	if cfg.Engine == nil {
		return errors.New("engine is required")
	}
	if cfg.Listen == "" {
		return errors.New("listen address is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return nil
}

// Server is the HTTP API server.
type Server struct {
	log    *slog.Logger
	cfg    Config
	router *chi.Mux
	srv    *http.Server
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		log:    cfg.Logger,
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metricsMiddleware)

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Route("/main/{main}", func(r chi.Router) {
			r.Get("/", s.handleMainState)
			r.Get("/vaults", s.handleVaults)
			r.Get("/vaults/{lst}", s.handleVault)
			r.Get("/vaults/{lst}/strategies/{state}", s.handleStrategy)
			r.Get("/strategies", s.handleStrategies)
			r.Get("/tickets", s.handleTickets)
			r.Get("/audit", s.handleAudit)
		})
		r.Get("/tickets/{ticket}", s.handleTicket)
		r.Get("/events", s.handleEvents)
		r.Get("/events/stream", s.handleEventStream)
		r.Get("/events/{seq}", s.handleEvent)
		r.Get("/tx/types", s.handleTxTypes)
		r.Post("/tx", s.handleSubmit)
	})
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", "addr", s.cfg.Listen)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("server: shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
