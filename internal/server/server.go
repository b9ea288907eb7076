// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: New opens the database and builds
// repositories → services → handlers, then mounts them on a chi router.
// Nothing else in the tree constructs a dependency.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/tasklist/internal/auth"
	"github.com/sakif/tasklist/internal/config"
	"github.com/sakif/tasklist/internal/handler"
	"github.com/sakif/tasklist/internal/middleware"
	sqliteRepo "github.com/sakif/tasklist/internal/repository/sqlite"
	"github.com/sakif/tasklist/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and closes it after the HTTP
// server has drained (see Start).
type Server struct {
	router  *chi.Mux
	handler http.Handler
	config  config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
}

// New creates a Server: it opens the database, wires every layer and
// registers the routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	// otelhttp starts a server span per request under a fixed operation
	// name; middleware.RouteSpan renames it to the matched route pattern.
	// With tracing disabled the global provider is a no-op.
	s.handler = otelhttp.NewHandler(s.router, "tasklist")

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
// POST   /api/register          → create account
// POST   /api/login             → bearer token (+ cookie)
// GET    /api/logout            → clear cookie, 303 to /login
// GET    /api/profile           → {email, name}                 [auth]
// GET    /api/tasks             → list own tasks                [auth]
// POST   /api/tasks             → create task                   [auth]
// PUT    /api/tasks/{id}        → set completed                 [auth]
// DELETE /api/tasks/{id}        → delete task                   [auth]
// GET    /auth/github/login     → GitHub redirect               (if configured)
// GET    /auth/github/callback  → GitHub sign-in                (if configured)
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so the access log can carry it, Recoverer innermost of
// the globals so a panic still produces a logged 500. RouteSpan sits
// outside Recoverer so a panicking route still gets its span renamed.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.RouteSpan)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	taskService := service.NewTaskService(s.db.Tasks(), s.logger)

	var github handler.GitHubSignIn
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/profile", authHandler.HandleProfile)
			r.Get("/tasks", taskHandler.HandleList)
			r.Post("/tasks", taskHandler.HandleCreate)
			r.Put("/tasks/{id}", taskHandler.HandleUpdate)
			r.Delete("/tasks/{id}", taskHandler.HandleDelete)
		})
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		s.logger.Info("GitHub sign-in enabled")
	}

	return nil
}

// Handler returns the fully wired HTTP handler. Tests drive it through
// httptest without opening a socket.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases the database. Start calls it on the way out; tests that
// never call Start use it directly.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
