package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/bulkmail/pkg/health"
	"github.com/dmitrymomot/bulkmail/pkg/logger"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Server owns routing, middleware and error rendering.
// It is immutable after New.
type Server struct {
	router                  chi.Router
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	healthConfig            *healthConfig
	logger                  *slog.Logger
	middlewares             []Middleware
	handlers                []Handler
}

// New creates a server with the given options.
//
// Example:
//
//	srv := server.New(
//	    server.WithLogger(log),
//	    server.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    server.WithHandlers(api.NewSendHandler(d, cfg)),
//	)
func New(opts ...Option) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		logger:       logger.NewNope(),
		errorHandler: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notFoundHandler == nil {
		s.notFoundHandler = func(c Context) error {
			return ErrNotFound("❌ Not found.")
		}
	}
	if s.methodNotAllowedHandler == nil {
		s.methodNotAllowedHandler = func(c Context) error {
			return c.Error(http.StatusMethodNotAllowed, "❌ Method not allowed.")
		}
	}

	s.setupRoutes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr and blocks until SIGINT/SIGTERM or the context set with
// WithContext is done, then shuts down gracefully.
func (s *Server) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = s.logger
	}
	return runServer(runtimeConfig{
		handler:         s.router,
		address:         addr,
		logger:          cfg.logger,
		readTimeout:     cfg.readTimeout,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    cfg.startupHooks,
		shutdownHooks:   cfg.shutdownHooks,
		baseCtx:         cfg.baseCtx,
	})
}

func (s *Server) setupRoutes() {
	s.router.NotFound(s.wrapHandler(s.notFoundHandler))
	s.router.MethodNotAllowed(s.wrapHandler(s.methodNotAllowedHandler))

	for _, mw := range s.middlewares {
		s.router.Use(s.adaptMiddleware(mw))
	}

	if s.healthConfig != nil {
		s.router.Get(s.healthConfig.livenessPath, health.LivenessHandler())
		s.router.Get(s.healthConfig.readinessPath, health.ReadinessHandler(
			s.healthConfig.checks,
			health.WithLogger(s.logger),
		))
	}

	r := &chiRouter{mux: s.router, srv: s}
	for _, h := range s.handlers {
		h.Routes(r)
	}
}

// wrapHandler converts a HandlerFunc to http.HandlerFunc using the server's error handler.
func (s *Server) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, s.logger)
		if err := h(c); err != nil {
			s.handleError(c, err)
		}
	}
}

func (s *Server) handleError(c Context, err error) {
	if c.Written() {
		c.LogWarn("error after response started", "error", err)
		return
	}
	if herr := s.errorHandler(c, err); herr != nil && !c.Written() {
		http.Error(c.Response(), "Internal Server Error", http.StatusInternalServerError)
	}
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
//
//	server.WithReadinessCheck("storage", store.Ping)
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
