// Package api exposes the health store over a local HTTP API for UI clients.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/medtrack/medtrack-cli/internal/config"
	"github.com/medtrack/medtrack-cli/internal/health"
	"github.com/medtrack/medtrack-cli/internal/notify"
	"go.uber.org/zap"
)

// Server handles the local HTTP API
type Server struct {
	app       *fiber.App
	config    *config.Config
	db        *health.Database
	scheduler notify.Scheduler
	logger    *zap.Logger
}

// New creates a new API server
func New(cfg *config.Config, db *health.Database, scheduler notify.Scheduler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{
		app:       app,
		config:    cfg,
		db:        db,
		scheduler: scheduler,
		logger:    logger,
	}

	s.setupRoutes()
	return s
}

// Start begins serving on the configured address.
func (s *Server) Start() error {
	addr := fiberAddr(s.config)
	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying fiber app. Used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}
