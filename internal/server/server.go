// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: it opens the configured key-value
// store, builds the core (account store, session, notification sink, job
// store) over it exactly once, and hands each handler the pieces it needs.
// Nothing else in the program constructs a store.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go: flags/env → server.Config
//	New():   repository.Store → AccountStore → Session
//	                          → NotificationSink → JobStore
//	         stores → handlers → routes
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

	"github.com/sakif/jobboard/internal/auth"
	"github.com/sakif/jobboard/internal/handler"
	"github.com/sakif/jobboard/internal/middleware"
	"github.com/sakif/jobboard/internal/repository"
	"github.com/sakif/jobboard/internal/repository/memory"
	redisRepo "github.com/sakif/jobboard/internal/repository/redis"
	sqliteRepo "github.com/sakif/jobboard/internal/repository/sqlite"
	"github.com/sakif/jobboard/internal/service"
)

// Storage backends accepted in Config.Storage.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config holds server configuration.
type Config struct {
	Port int

	Storage    string // one of StorageMemory, StorageSQLite, StorageRedis
	SQLitePath string
	Redis      redisRepo.Config

	AllowStatusRevision bool
	BcryptCost          int // 0 means auth.DefaultCost
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store connection. Start closes it after shutdown;
// callers that never call Start (tests) call Close.
type Server struct {
	router     *chi.Mux
	config     Config
	logger     *slog.Logger
	closeStore func() error
}

// New opens the store, loads every collection and wires the routes.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:     chi.NewRouter(),
		config:     cfg,
		logger:     logger,
		closeStore: closeStore,
	}

	if err := s.setupRoutes(ctx, store); err != nil {
		_ = closeStore() // Clean up the connection if wiring fails
		return nil, err
	}

	return s, nil
}

// openStore builds the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg Config) (repository.Store, func() error, error) {
	switch cfg.Storage {
	case StorageMemory, "":
		return memory.New(), func() error { return nil }, nil

	case StorageSQLite:
		db, err := sqliteRepo.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, db.Close, nil

	case StorageRedis:
		rs, err := redisRepo.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("opening redis store: %w", err)
		}
		return rs, rs.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}

// setupRoutes builds the core and configures all middleware and routes.
//
// ROUTE STRUCTURE:
// POST   /api/accounts              → register
// GET    /api/accounts?q=           → search by username or name
// GET    /api/accounts/{id}         → public profile
// DELETE /api/accounts              → delete all accounts, end session
// POST   /api/session               → log in
// GET    /api/session               → current identity
// DELETE /api/session               → log out
// DELETE /api/jobs                  → delete all jobs
// (session required below)
// POST   /api/jobs                  → offer a job
// GET    /api/jobs                  → jobs I created or received
// POST   /api/jobs/{id}/accept      → accept for myself
// POST   /api/jobs/{id}/reject      → reject for myself
// DELETE /api/jobs/{id}             → remove (creator only)
// GET    /api/notifications         → my notifications
// DELETE /api/notifications         → clear my notifications
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can print the id; Recoverer sits
// inside the logger so a recovered panic is still logged as a 500.
func (s *Server) setupRoutes(ctx context.Context, store repository.Store) error {
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	accounts, err := service.NewAccountStore(ctx, store, passwords, s.logger)
	if err != nil {
		return err
	}
	session, err := service.NewSession(ctx, store, accounts, passwords, s.logger)
	if err != nil {
		return err
	}
	notifications := service.NewNotificationSink(store, s.logger)
	jobs, err := service.NewJobStore(ctx, store, accounts, notifications,
		service.JobConfig{AllowStatusRevision: s.config.AllowStatusRevision}, s.logger)
	if err != nil {
		return err
	}

	accountHandler := handler.NewAccountHandler(accounts, session, s.logger)
	sessionHandler := handler.NewSessionHandler(session, s.logger)
	jobHandler := handler.NewJobHandler(jobs, s.logger)
	notificationHandler := handler.NewNotificationHandler(notifications, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/accounts", accountHandler.HandleCreate)
		r.Get("/accounts", accountHandler.HandleSearch)
		r.Get("/accounts/{id}", accountHandler.HandleGetByID)
		r.Delete("/accounts", accountHandler.HandleClearAll)

		r.Post("/session", sessionHandler.HandleLogin)
		r.Get("/session", sessionHandler.HandleCurrent)
		r.Delete("/session", sessionHandler.HandleLogout)

		r.Delete("/jobs", jobHandler.HandleClearAll)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(session))

			r.Post("/jobs", jobHandler.HandleCreate)
			r.Get("/jobs", jobHandler.HandleList)
			r.Post("/jobs/{id}/accept", jobHandler.HandleAccept)
			r.Post("/jobs/{id}/reject", jobHandler.HandleReject)
			r.Delete("/jobs/{id}", jobHandler.HandleRemove)

			r.Get("/notifications", notificationHandler.HandleList)
			r.Delete("/notifications", notificationHandler.HandleClear)
		})
	})

	return nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store connection.
func (s *Server) Close() error {
	return s.closeStore()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store (flushes the sqlite WAL, closes the redis pool)
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
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
			slog.String("storage", s.config.Storage),
			slog.Bool("allowStatusRevision", s.config.AllowStatusRevision),
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
