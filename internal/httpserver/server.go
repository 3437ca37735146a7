package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davidbz/promptforge/internal/config"
	"github.com/davidbz/promptforge/internal/httpserver/middleware"
	"github.com/davidbz/promptforge/internal/observability"
)

// Server represents the HTTP server.
type Server struct {
	config      *config.Config
	handler     *Handler
	middlewares middleware.Middleware
	srv         *http.Server
}

// NewServer creates a new HTTP server (DI constructor).
func NewServer(
	cfg *config.Config,
	handler *Handler,
	middlewares middleware.Middleware,
) *Server {
	return &Server{
		config:      cfg,
		handler:     handler,
		middlewares: middlewares,
		srv:         nil,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Per-route boundary guards: rate limit -> auth -> body size.
	store := middleware.NewStore(s.config.RateLimit.PruneThreshold)
	guard := middleware.Chain(
		middleware.RateLimit(&s.config.RateLimit, "generate", store),
		middleware.Auth(&s.config.Auth),
		middleware.BodyLimit(s.config.Server.MaxBodyBytes),
	)

	mux.Handle("/v1/generate", guard(http.HandlerFunc(s.handler.HandleGenerate)))
	mux.HandleFunc("/health", s.handler.HandleHealth)

	// Apply global middleware chain.
	handlerWithMiddleware := s.middlewares(mux)

	// Create server with timeouts. The write timeout must outlast a full
	// provider stream including retries.
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      handlerWithMiddleware,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
	}

	ctx := context.Background()
	observability.FromContext(ctx).Info("starting HTTP server", observability.Int("port", s.config.Server.Port))

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	if s.srv == nil {
		return nil
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
