package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/medtrack/medtrack-cli/internal/health"
	"github.com/medtrack/medtrack-cli/internal/metrics"
	"github.com/medtrack/medtrack-cli/internal/notify"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/plain; charset=utf-8")
	return c.SendString(metrics.GetPrometheus())
}

func (s *Server) handleMetricsJSON(c *fiber.Ctx) error {
	return c.JSON(metrics.GetSnapshot())
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	summary, err := s.db.HealthSummary(c.Context(), time.Now())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute summary"})
	}
	return c.JSON(summary)
}

// Medications

func (s *Server) handleListMedications(c *fiber.Ctx) error {
	meds, err := s.db.Medications(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load medications"})
	}
	return c.JSON(meds)
}

func (s *Server) handleCreateMedication(c *fiber.Ctx) error {
	var req createMedicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	if req.DosagePerIntake <= 0 || req.TimesPerDay <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "dosagePerIntake and timesPerDay must be positive"})
	}

	now := time.Now()
	med := health.Medication{
		ID:              health.NewID(),
		Name:            req.Name,
		Usage:           req.Usage,
		DosagePerIntake: req.DosagePerIntake,
		TimesPerDay:     req.TimesPerDay,
		CreatedAt:       now,
		UpdatedAt:       now,
		IsActive:        true,
	}
	for _, rem := range req.Reminders {
		if rem.Hour < 0 || rem.Hour > 23 || rem.Minute < 0 || rem.Minute > 59 {
			return c.Status(400).JSON(fiber.Map{"error": "reminder time out of range"})
		}
		med.Reminders = append(med.Reminders, health.Reminder{
			Hour:     rem.Hour,
			Minute:   rem.Minute,
			IsActive: true,
		})
	}

	// Scheduling failures degrade to a medication without handles; saving
	// still proceeds.
	med.Reminders = notify.ScheduleMedicationReminders(c.Context(), s.scheduler, s.logger, med)

	if err := s.db.AddMedication(c.Context(), med); err != nil {
		s.logger.Error("Failed to add medication", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to save medication"})
	}

	return c.Status(201).JSON(med)
}

func (s *Server) handleUpdateMedication(c *fiber.Ctx) error {
	var req updateMedicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	update := health.MedicationUpdate{
		Name:            req.Name,
		Usage:           req.Usage,
		DosagePerIntake: req.DosagePerIntake,
		TimesPerDay:     req.TimesPerDay,
		IsActive:        req.IsActive,
	}
	if err := s.db.UpdateMedication(c.Context(), c.Params("id"), update); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update medication"})
	}

	return c.SendStatus(204)
}

func (s *Server) handleDeleteMedication(c *fiber.Ctx) error {
	id := c.Params("id")

	// Release notification handles before the owning record goes away.
	meds, err := s.db.Medications(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load medications"})
	}
	for _, med := range meds {
		if med.ID == id {
			notify.CancelMedicationReminders(c.Context(), s.scheduler, s.logger, med)
			break
		}
	}

	if err := s.db.DeleteMedication(c.Context(), id); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete medication"})
	}
	return c.SendStatus(204)
}

// Blood pressure

func (s *Server) handleListReadings(c *fiber.Ctx) error {
	readings, err := s.db.BloodPressureReadings(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load readings"})
	}
	return c.JSON(readings)
}

func (s *Server) handleCreateReading(c *fiber.Ctx) error {
	var req createReadingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Systolic <= 0 || req.Diastolic <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "systolic and diastolic must be positive"})
	}

	timestamp := time.Now()
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	reading := health.BloodPressureReading{
		ID:        health.NewID(),
		Systolic:  req.Systolic,
		Diastolic: req.Diastolic,
		Pulse:     req.Pulse,
		Timestamp: timestamp,
		Notes:     req.Notes,
	}
	if err := s.db.AddBloodPressureReading(c.Context(), reading); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to save reading"})
	}

	return c.Status(201).JSON(reading)
}

func (s *Server) handleDeleteReading(c *fiber.Ctx) error {
	if err := s.db.DeleteBloodPressureReading(c.Context(), c.Params("id")); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete reading"})
	}
	return c.SendStatus(204)
}

func (s *Server) handleBloodPressureStats(c *fiber.Ctx) error {
	readings, err := s.db.BloodPressureReadings(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load readings"})
	}
	return c.JSON(health.ComputeBloodPressureStats(readings))
}

func (s *Server) handleBloodPressureCategory(c *fiber.Ctx) error {
	systolic := c.QueryInt("systolic", -1)
	diastolic := c.QueryInt("diastolic", -1)
	if systolic < 0 || diastolic < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "systolic and diastolic query parameters are required"})
	}

	category := health.Classify(systolic, diastolic)
	return c.JSON(categoryResponse{
		Category: category,
		Label:    category.Label(),
		Color:    category.Color(),
	})
}

// Therapy sessions

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.db.TherapySessions(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load sessions"})
	}
	return c.JSON(sessions)
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Title == "" {
		return c.Status(400).JSON(fiber.Map{"error": "title is required"})
	}
	switch req.Type {
	case health.TherapyExercise, health.TherapyDiet, health.TherapyOther:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "type must be exercise, diet, or other"})
	}

	timestamp := time.Now()
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	session := health.TherapySession{
		ID:          health.NewID(),
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Timestamp:   timestamp,
		Notes:       req.Notes,
	}
	if err := s.db.AddTherapySession(c.Context(), session); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to save session"})
	}

	return c.Status(201).JSON(session)
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.db.DeleteTherapySession(c.Context(), c.Params("id")); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete session"})
	}
	return c.SendStatus(204)
}

// Settings

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	settings, err := s.db.Settings(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load settings"})
	}
	return c.JSON(settings)
}

func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	update := health.SettingsUpdate{
		NotificationsEnabled: req.NotificationsEnabled,
		ReminderSound:        req.ReminderSound,
		Theme:                req.Theme,
		Units:                req.Units,
		Privacy:              req.Privacy,
	}
	if err := s.db.UpdateSettings(c.Context(), update); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update settings"})
	}

	settings, err := s.db.Settings(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load settings"})
	}
	return c.JSON(settings)
}
