package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"authgate/backend/internal/config"
	domain "authgate/backend/internal/domain/auth"
	"authgate/backend/internal/logging"
	"authgate/backend/internal/metrics"
	authusecase "authgate/backend/internal/usecase/auth"
)

// AccountService registers accounts and logs them in.
type AccountService interface {
	Register(ctx context.Context, in authusecase.RegisterInput) (*domain.Principal, error)
	Login(ctx context.Context, creds domain.Credentials) (*authusecase.LoginResult, error)
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer     *http.Server
	router         *http.ServeMux
	accounts       AccountService
	gate           *Gate
	logger         *slog.Logger
	metrics        *metrics.Collector
	serveMetrics   bool
	registerSchema *requestValidator
	loginSchema    *requestValidator
	addr           string
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records outcomes in c and, when enabled in config, serves /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.Config, accounts AccountService, resolver PrincipalResolver, opts ...Option) (*Server, error) {
	mux := http.NewServeMux()
	addr := cfg.HTTP.Addr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	srv := &Server{
		router:       mux,
		accounts:     accounts,
		logger:       logging.Discard(),
		serveMetrics: cfg.Metrics.Enabled,
		addr:         addr,
	}
	for _, opt := range opts {
		opt(srv)
	}

	var err error
	if srv.registerSchema, err = newRequestValidator("register.json", &registerRequest{}); err != nil {
		return nil, fmt.Errorf("register schema: %w", err)
	}
	if srv.loginSchema, err = newRequestValidator("login.json", &loginRequest{}); err != nil {
		return nil, fmt.Errorf("login schema: %w", err)
	}
	srv.gate = NewGate(resolver, srv.logger, srv.metrics)

	handler := withLogging(srv.logger, withRecovery(srv.logger, withCORS(mux, cfg.CORS.AllowedOrigins)))
	srv.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	srv.registerRoutes()
	return srv, nil
}

// Start bootstraps the HTTP server on the provided address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Gate exposes the auth gate so callers can protect additional routes.
func (s *Server) Gate() *Gate {
	return s.gate
}

// Router exposes the underlying ServeMux so routes can be registered.
func (s *Server) Router() *http.ServeMux {
	return s.router
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
