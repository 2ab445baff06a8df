// Package server wires the application together: it opens the database,
// builds the service and handler layers, mounts the routes, and runs the
// HTTP server with graceful shutdown. It is the composition root; main.go
// only reads configuration and calls into here.
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
	"github.com/go-chi/cors"

	"github.com/realworld-apps/conduit-neo4j/internal/auth"
	"github.com/realworld-apps/conduit-neo4j/internal/handler"
	"github.com/realworld-apps/conduit-neo4j/internal/middleware"
	neo4jRepo "github.com/realworld-apps/conduit-neo4j/internal/repository/neo4j"
	"github.com/realworld-apps/conduit-neo4j/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	JWTSecret string
	Neo4j     neo4jRepo.Config
}

// Server owns the router, the database connection, and the logger. The
// database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *neo4jRepo.DB
}

// New assembles the full dependency chain: database, auth services, domain
// services, handlers, routes. Each layer only receives the interfaces it
// needs.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := neo4jRepo.New(ctx, cfg.Neo4j, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes mounts the middleware stack and the route table.
//
// Route order matters in two places: /articles/feed must be registered
// before /articles/{slug} so "feed" is never captured as a slug, and the
// auth middleware differs per route group (required, optional, none).
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	userService := service.NewUserService(s.db, auth.NewPasswordService(), tokens, s.logger)
	articleService := service.NewArticleService(s.db, s.db, s.logger)
	tagService := service.NewTagService(s.db)

	users := handler.NewUserHandler(userService)
	profiles := handler.NewProfileHandler(userService)
	articles := handler.NewArticleHandler(articleService)
	comments := handler.NewCommentHandler(articleService)
	tags := handler.NewTagHandler(tagService)

	requireAuth := auth.RequireAuth(tokens, s.db)
	optionalAuth := auth.OptionalAuth(tokens, s.db)

	s.router.Post("/users", users.Register)
	s.router.Post("/users/login", users.Login)

	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/user", users.Current)
		r.Put("/user", users.Update)
		r.Post("/profiles/{username}/follow", profiles.Follow)
		r.Delete("/profiles/{username}/follow", profiles.Unfollow)
		r.Get("/articles/feed", articles.Feed)
		r.Post("/articles", articles.Create)
		r.Put("/articles/{slug}", articles.Update)
		r.Delete("/articles/{slug}", articles.Delete)
		r.Post("/articles/{slug}/favorite", articles.Favorite)
		r.Delete("/articles/{slug}/favorite", articles.Unfavorite)
		r.Post("/articles/{slug}/comments", comments.Create)
		r.Delete("/articles/{slug}/comments/{id}", comments.Delete)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/profiles/{username}", profiles.Get)
		r.Get("/articles", articles.List)
		r.Get("/articles/{slug}", articles.Get)
	})

	s.router.Get("/articles/{slug}/comments", comments.List)
	s.router.Get("/tags", tags.List)

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database connection.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.Int("port", s.config.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.db.Close(context.Background())
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		s.logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.db.Close(context.Background())
		return fmt.Errorf("forced shutdown: %w", err)
	}

	if err := s.db.Close(ctx); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
