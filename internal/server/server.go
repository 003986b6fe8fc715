// Package server sets up the HTTP server, router, and all route
// definitions.
//
// This is the composition root: every dependency — database, token
// service, password service, mailer, OAuth provider, session store — is
// constructed and wired here, then handed down as constructor arguments.
// No component reaches for a global.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"github.com/hiroshandev/media-gallery-api/internal/auth"
	"github.com/hiroshandev/media-gallery-api/internal/config"
	"github.com/hiroshandev/media-gallery-api/internal/handler"
	"github.com/hiroshandev/media-gallery-api/internal/mail"
	"github.com/hiroshandev/media-gallery-api/internal/middleware"
	sqliteRepo "github.com/hiroshandev/media-gallery-api/internal/repository/sqlite"
	"github.com/hiroshandev/media-gallery-api/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	cfg    config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency graph wired.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires middleware, dependencies, and the route table.
//
// ROUTE STRUCTURE:
//
//	POST /api/auth/register           local registration (OTP mailed)
//	POST /api/auth/verify-email       OTP → first token
//	POST /api/auth/resend-otp         re-mail the registration OTP
//	POST /api/auth/login              email/password → token
//	GET  /api/auth/google             redirect to Google consent
//	GET  /api/auth/google/callback    complete OAuth, → token
//	POST /api/auth/forgot-password    mail a reset OTP
//	POST /api/auth/reset-password     reset OTP → new password
//	GET  /api/auth/me                 current user          [auth]
//	GET  /api/admin/users-count       account count         [auth+verified+admin]
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret, s.cfg.JWTExpiresIn)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	passwords := auth.NewPasswordService()

	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     s.cfg.EmailHost,
		Port:     s.cfg.EmailPort,
		Username: s.cfg.EmailUser,
		Password: s.cfg.EmailPass,
		From:     s.cfg.EmailFrom,
	}, s.logger)

	google := auth.NewGoogleProvider(
		s.cfg.GoogleClientID,
		s.cfg.GoogleClientSecret,
		s.cfg.GoogleCallbackURL,
	)

	// Cookie session for the OAuth handshake only. HttpOnly always;
	// Secure in production where the callback is HTTPS.
	store := sessions.NewCookieStore([]byte(s.cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	authService := service.NewAuthService(s.db, tokens, passwords, mailer, s.logger)
	authHandler := handler.NewAuthHandler(authService, google, store, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db, s.logger)

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/verify-email", authHandler.HandleVerifyEmail)
		r.Post("/resend-otp", authHandler.HandleResendOTP)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/forgot-password", authHandler.HandleForgotPassword)
		r.Post("/reset-password", authHandler.HandleResetPassword)

		r.Get("/google", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
		})
	})

	s.router.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(auth.RequireVerifiedEmail)
		r.Use(auth.RequireAdmin)
		r.Get("/users-count", authHandler.HandleUsersCount)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("env", s.cfg.Env),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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

// Router exposes the chi router for tests that drive the full HTTP stack
// with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}
