package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/medtrack/medtrack-cli/internal/config"
)

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Server.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/metrics", s.handleMetrics)
	s.app.Get("/api/metrics", s.handleMetricsJSON)

	api := s.app.Group("/api")

	api.Get("/summary", s.handleSummary)

	api.Get("/medications", s.handleListMedications)
	api.Post("/medications", s.handleCreateMedication)
	api.Patch("/medications/:id", s.handleUpdateMedication)
	api.Delete("/medications/:id", s.handleDeleteMedication)

	api.Get("/bloodpressure", s.handleListReadings)
	api.Post("/bloodpressure", s.handleCreateReading)
	api.Delete("/bloodpressure/:id", s.handleDeleteReading)
	api.Get("/bloodpressure/stats", s.handleBloodPressureStats)
	api.Get("/bloodpressure/category", s.handleBloodPressureCategory)

	api.Get("/therapy", s.handleListSessions)
	api.Post("/therapy", s.handleCreateSession)
	api.Delete("/therapy/:id", s.handleDeleteSession)

	api.Get("/settings", s.handleGetSettings)
	api.Patch("/settings", s.handleUpdateSettings)
}

func fiberAddr(cfg *config.Config) string {
	return fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
}
