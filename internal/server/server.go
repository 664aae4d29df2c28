// Package server is the composition root: it opens the database, builds the
// services and handlers, mounts the routes and runs the HTTP server with
// graceful shutdown.
//
//	config.Config → sqlite.DB → NoteService / AuthService / DashboardService
//	              → NoteHandler / AuthHandler / UserHandler / DashboardHandler
//
// Keeping this out of main.go lets tests build a full server against an
// in-memory database and drive it through Handler().
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

	"github.com/sakif/stickyboard/internal/auth"
	"github.com/sakif/stickyboard/internal/config"
	"github.com/sakif/stickyboard/internal/handler"
	"github.com/sakif/stickyboard/internal/middleware"
	"github.com/sakif/stickyboard/internal/model"
	sqliteRepo "github.com/sakif/stickyboard/internal/repository/sqlite"
	"github.com/sakif/stickyboard/internal/service"
)

// Server represents the HTTP server and all its dependencies. It owns the
// database connection and closes it on shutdown.
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	passwords *auth.PasswordService
}

// New creates a Server from cfg.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServer(cfg, logger, auth.NewPasswordService())
}

func newServer(cfg config.Config, logger *slog.Logger, passwords *auth.PasswordService) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		db:        db,
		passwords: passwords,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
//
//	GET    /healthz                    → liveness + DB ping
//	POST   /api/auth/register          → create account
//	POST   /api/auth/login             → password login
//	POST   /api/auth/logout            → clear cookie
//	GET    /api/auth/github/login      → GitHub redirect (when configured)
//	GET    /api/auth/github/callback   → GitHub callback
//	GET    /api/me                     → [auth] caller profile
//	GET    /api/notes                  → [auth] list
//	POST   /api/notes                  → [auth] create
//	GET    /api/notes/{id}             → [auth] get
//	PUT    /api/notes/{id}             → [auth] partial update
//	DELETE /api/notes/{id}             → [auth] delete
//	GET    /api/users                  → [admin] list users
//	GET    /api/dashboard              → [admin] statistics
//	GET    /*                          → STATIC_DIR, when set
//
// Middleware runs in the order it is added: request id, real IP, access
// log, panic recovery.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
		s.logger.Info("GitHub login enabled", slog.String("callback", s.config.GitHubCallbackURL))
	}

	// *sqlite.DB is the note repository; db.Users() the user repository.
	noteService := service.NewNoteService(s.db, s.logger)
	authService := service.NewAuthService(s.db.Users(), tokens, s.passwords, s.config.AdminEmails, s.logger)
	dashboardService := service.NewDashboardService(noteService, authService, s.logger)

	noteHandler := handler.NewNoteHandler(noteService, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, tokens.TTL(), s.logger)
	userHandler := handler.NewUserHandler(authService, s.logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", noteHandler.HandleList)
				r.Post("/", noteHandler.HandleCreate)
				r.Get("/{id}", noteHandler.HandleGet)
				r.Put("/{id}", noteHandler.HandleUpdate)
				r.Delete("/{id}", noteHandler.HandleDelete)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(model.RoleAdmin))
				r.Get("/users", userHandler.HandleList)
				r.Get("/dashboard", dashboardHandler.HandleStats)
			})
		})
	})

	if s.config.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests (30s) and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
