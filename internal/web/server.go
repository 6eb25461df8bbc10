package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/face-recall/internal/config"
	"github.com/kozaktomas/face-recall/internal/recall"
	"github.com/kozaktomas/face-recall/internal/web/handlers"
	"github.com/kozaktomas/face-recall/internal/web/middleware"
)

const (
	requestTimeout  = time.Minute
	shutdownTimeout = 30 * time.Second
)

// Server serves the recall HTTP API.
type Server struct {
	config     *config.Config
	svc        *recall.Service
	logger     *slog.Logger
	router     *chi.Mux
	httpServer *http.Server
	sessions   *handlers.SessionStore
}

// NewServer builds the router and the HTTP server for cfg.Web.
func NewServer(cfg *config.Config, svc *recall.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	s := &Server{
		config:   cfg,
		svc:      svc,
		logger:   logger,
		router:   r,
		sessions: handlers.NewSessionStore(cfg.Web.SessionTTL),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Web.Host, strconv.Itoa(cfg.Web.Port)),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      requestTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	return s
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(s.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown stops the session janitor and drains open connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server", "sessions", s.sessions.Len())
	s.sessions.Stop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router exposes the router to tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
