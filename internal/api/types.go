package api

import (
	"time"

	"github.com/medtrack/medtrack-cli/internal/health"
)

// reminderTime is a reminder's schedule as submitted by a client.
type reminderTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type createMedicationRequest struct {
	Name            string         `json:"name"`
	Usage           string         `json:"usage"`
	DosagePerIntake int            `json:"dosagePerIntake"`
	TimesPerDay     int            `json:"timesPerDay"`
	Reminders       []reminderTime `json:"reminders"`
}

type updateMedicationRequest struct {
	Name            *string `json:"name"`
	Usage           *string `json:"usage"`
	DosagePerIntake *int    `json:"dosagePerIntake"`
	TimesPerDay     *int    `json:"timesPerDay"`
	IsActive        *bool   `json:"isActive"`
}

type createReadingRequest struct {
	Systolic  int        `json:"systolic"`
	Diastolic int        `json:"diastolic"`
	Pulse     *int       `json:"pulse"`
	Timestamp *time.Time `json:"timestamp"`
	Notes     string     `json:"notes"`
}

type createSessionRequest struct {
	Type        health.TherapyType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Duration    *int               `json:"duration"`
	Timestamp   *time.Time         `json:"timestamp"`
	Notes       string             `json:"notes"`
}

type updateSettingsRequest struct {
	NotificationsEnabled *bool                   `json:"notificationsEnabled"`
	ReminderSound        *string                 `json:"reminderSound"`
	Theme                *string                 `json:"theme"`
	Units                *health.UnitSettings    `json:"units"`
	Privacy              *health.PrivacySettings `json:"privacySettings"`
}

type categoryResponse struct {
	Category health.Category `json:"category"`
	Label    string          `json:"label"`
	Color    string          `json:"color"`
}
