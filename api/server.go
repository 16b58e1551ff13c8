// Package api hosts the shell over HTTP. It keeps one working directory per
// session and exposes a stateless exec endpoint, session management and a
// WebSocket JSON-RPC REPL.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/telnet2/go-practice/go-sandsh"
)

// Config holds server configuration.
type Config struct {
	Addr        string
	EnableCORS  bool
	ReadTimeout time.Duration
	// InitialCwd is where new sessions start.
	InitialCwd string
	// SessionIdleTimeout removes idle sessions when positive.
	SessionIdleTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:        ":8080",
		EnableCORS:  true,
		ReadTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server.
type Server struct {
	config   *Config
	router   *chi.Mux
	httpSrv  *http.Server
	sessions *SessionManager
	logger   zerolog.Logger
}

// New creates a new Server instance.
func New(cfg *Config, exec *sandsh.Executor, logger zerolog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		sessions: NewSessionManager(exec, cfg.InitialCwd),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.router,
		ReadTimeout: cfg.ReadTimeout,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(hlog.NewHandler(s.logger))
	s.router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	s.router.Use(middleware.Recoverer)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/exec", s.handleExec)
		r.Get("/commands", s.handleCommands)

		r.Route("/session", func(r chi.Router) {
			r.Post("/create", s.handleCreateSession)
			r.Post("/list", s.handleListSessions)
			r.Post("/remove", s.handleRemoveSession)
			r.Get("/repl", s.handleREPL)
		})
	})
}

// Start starts the HTTP server and blocks until it stops. Idle session
// pruning runs until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.config.SessionIdleTimeout > 0 {
		interval := s.config.SessionIdleTimeout / 2
		if interval < time.Second {
			interval = time.Second
		}
		s.sessions.StartPruner(ctx, interval, s.config.SessionIdleTimeout, func(n int) {
			s.logger.Info().Int("count", n).Msg("pruned idle sessions")
		})
	}

	s.logger.Info().Str("addr", s.config.Addr).Msg("server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
