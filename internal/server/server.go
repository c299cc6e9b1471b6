package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/config"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/handler"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/keys"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/metrics"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/openapi"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/server/middleware"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host               string
	Port               int
	ShutdownTimeout    time.Duration
	RequestTimeout     time.Duration // zero disables
	CORSOrigins        []string
	MaxBodySize        int64 // bytes
	RateLimitPerMinute int   // per IP on register and login; zero disables
	EnforceLiveSession bool  // liveness check on every protected route
	Version            string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               3000,
		ShutdownTimeout:    30 * time.Second,
		CORSOrigins:        []string{"*"},
		MaxBodySize:        1 << 20,
		RateLimitPerMinute: 30,
	}
}

// ConfigFrom extracts the server settings from the application config.
func ConfigFrom(c *config.Config, version string) Config {
	return Config{
		Host:               c.Server.Host,
		Port:               c.Server.Port,
		ShutdownTimeout:    c.Server.ShutdownTimeout,
		RequestTimeout:     c.Server.RequestTimeout,
		CORSOrigins:        c.Server.CORSOrigins,
		MaxBodySize:        c.Server.MaxBodySize,
		RateLimitPerMinute: c.Auth.RateLimitPerMinute,
		EnforceLiveSession: c.Auth.EnforceLiveSession,
		Version:            version,
	}
}

// Deps are the collaborators the server routes to. Metrics is optional; a
// nil value disables /metrics and request instrumentation.
type Deps struct {
	Sessions *service.SessionManager
	Tokens   middleware.TokenVerifier
	Keys     *keys.Material
	Messages *errcode.Catalog
	Metrics  *metrics.Metrics
	Ready    map[string]handler.Pinger
	Closers  []io.Closer
	Logger   *slog.Logger
}

// Server is the top-level HTTP server. It owns the chi router and the
// resources handed to it in Deps.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Messages == nil {
		deps.Messages = errcode.Default()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{cfg: cfg, deps: deps, logger: deps.Logger}
	if err := s.setupRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRouter() error {
	msgs := s.deps.Messages
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
	}
	r.Use(middleware.Recover(s.logger, msgs))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout, msgs))
	}
	r.Use(chimw.Compress(5))

	// --- System routes (no auth required) ---
	doc := openapi.Generate(openapi.Info{Version: s.cfg.Version})
	sys, err := handler.NewSystemHandler(s.deps.Ready, s.deps.Keys, doc, s.logger)
	if err != nil {
		return fmt.Errorf("openapi document: %w", err)
	}
	r.Get("/healthz", sys.Healthz)
	r.Get("/readyz", sys.Readyz)
	r.Get("/.well-known/jwks.json", sys.JWKS)
	r.Get("/openapi.json", sys.OpenAPI)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}

	// --- Admin routes ---
	admin := handler.NewAdminHandler(s.deps.Sessions, msgs, s.logger)
	limit := middleware.RateLimit(s.cfg.RateLimitPerMinute, msgs)
	live := middleware.RequireLiveSession(s.deps.Sessions, msgs)

	r.Route("/admin", func(r chi.Router) {
		r.With(limit).Post("/register", admin.Register)
		r.Get("/activeEmailCode", admin.ActivateEmailCode)
		r.With(limit).Post("/login", admin.Login)

		// Signature-checked routes. /my always needs a live session;
		// logout only when enforcement is on.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.deps.Tokens, msgs))
			if s.cfg.EnforceLiveSession {
				r.Use(live)
				r.Get("/my", admin.My)
			} else {
				r.With(live).Get("/my", admin.My)
			}
			r.Post("/logout", admin.Logout)
		})
	})

	s.router = r
	return nil
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the cache and database connections.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		s.closeDeps()
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.closeDeps()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) closeDeps() {
	for _, c := range s.deps.Closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("close failed", "error", err)
		}
	}
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
