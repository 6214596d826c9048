// Package httpapi exposes the RAG pipeline, ingestion and conversation
// history over a JSON HTTP API built on fiber.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Defaults for Config.
const (
	DefaultRequestTimeout = 120 * time.Second
	DefaultBodyLimit      = 20 << 20

	healthTimeout = 5 * time.Second
)

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("httpapi: rag service is required")

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	RAG          driving.RAGService
	Ingestion    driving.IngestionService
	Conversation driving.ConversationService

	// HistoryTurns is how many prior turns are fed back into a query that
	// names a session. Zero disables it.
	HistoryTurns int

	// Checks are run by the health endpoint, keyed by component name.
	Checks map[string]HealthCheck
}

// Config holds server settings.
type Config struct {
	// RequestTimeout bounds every handler through its context.
	RequestTimeout time.Duration
	// BodyLimit caps request bodies, including uploads.
	BodyLimit int
	// AllowOrigins lists CORS origins. Empty allows any origin.
	AllowOrigins []string
}

// Server is the HTTP API.
type Server struct {
	ports   *Ports
	timeout time.Duration
	app     *fiber.App
}

// NewServer builds the fiber app and registers every route.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if ports == nil || ports.RAG == nil {
		return nil, ErrMissingRAGService
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:      "docrag",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		BodyLimit:    cfg.BodyLimit,
	})
	app.Use(recover.New())
	corsCfg := cors.Config{
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	}
	if len(cfg.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	app.Use(cors.New(corsCfg))
	app.Use(requestLogger)

	s := &Server{ports: ports, timeout: cfg.RequestTimeout, app: app}
	s.register(app.Group("/api/v1"))
	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return <-errCh
	}
}

func (s *Server) register(api fiber.Router) {
	api.Get("/health", s.health)
	api.Post("/query", s.query)
	api.Get("/sessions/:id/turns", s.sessionTurns)
	api.Delete("/sessions/:id", s.clearSession)
	api.Post("/documents", s.ingest)
	api.Delete("/documents/:id", s.deleteDocument)
}

// requestContext derives the handler context with the request deadline.
func (s *Server) requestContext(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), s.timeout)
}

func requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	logger.Debug("%s %s -> %d (%s)", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start))
	return err
}
