package health

import (
	"time"

	"github.com/google/uuid"
)

// Trend is a coarse directional classification of a metric across a split window.
type Trend string

const (
	TrendStable     Trend = "stable"
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendUnknown    Trend = "unknown"
)

// TherapyType describes what kind of therapy a session was.
type TherapyType string

const (
	TherapyExercise TherapyType = "exercise"
	TherapyDiet     TherapyType = "diet"
	TherapyOther    TherapyType = "other"
)

// ReminderFrequency describes how often a therapy reminder fires.
type ReminderFrequency string

const (
	FrequencyDaily  ReminderFrequency = "daily"
	FrequencyWeekly ReminderFrequency = "weekly"
	FrequencyCustom ReminderFrequency = "custom"
)

// Medication is a tracked medication with its reminder schedule.
type Medication struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Usage           string         `json:"usage"`
	DosagePerIntake int            `json:"dosagePerIntake"`
	TimesPerDay     int            `json:"timesPerDay"`
	Reminders       []Reminder     `json:"reminders"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	IsActive        bool           `json:"isActive"`
	Adherence       *AdherenceData `json:"adherenceData,omitempty"`
}

// Reminder links a medication to a scheduled notification. NotificationID is an
// opaque handle into the notification scheduler; the store never interprets it.
type Reminder struct {
	NotificationID string `json:"notificationId"`
	Hour           int    `json:"hour"`
	Minute         int    `json:"minute"`
	IsActive       bool   `json:"isActive"`
}

// AdherenceData tracks how consistently scheduled doses were taken.
type AdherenceData struct {
	TotalDoses  int        `json:"totalDoses"`
	TakenDoses  int        `json:"takenDoses"`
	MissedDoses int        `json:"missedDoses"`
	LastTaken   *time.Time `json:"lastTaken,omitempty"`
	StreakDays  int        `json:"streakDays"`
}

// BloodPressureReading is a single measurement. Readings are immutable once
// created; the only mutation is deletion.
type BloodPressureReading struct {
	ID        string    `json:"id"`
	Systolic  int       `json:"systolic"`
	Diastolic int       `json:"diastolic"`
	Pulse     *int      `json:"pulse,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// TherapySession is a logged exercise, diet, or other therapy activity.
type TherapySession struct {
	ID          string           `json:"id"`
	Type        TherapyType      `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Duration    *int             `json:"duration,omitempty"` // minutes
	Timestamp   time.Time        `json:"timestamp"`
	Notes       string           `json:"notes,omitempty"`
	Reminder    *TherapyReminder `json:"reminder,omitempty"`
}

// TherapyReminder is an optional recurring reminder attached to a session.
type TherapyReminder struct {
	NotificationID string            `json:"notificationId"`
	Hour           int               `json:"hour"`
	Minute         int               `json:"minute"`
	IsActive       bool              `json:"isActive"`
	Frequency      ReminderFrequency `json:"frequency"`
	CustomDays     []int             `json:"customDays,omitempty"` // 0=Sunday
}

// UnitSettings holds the display units for measurements.
type UnitSettings struct {
	BloodPressure string `json:"bloodPressure"`
	Weight        string `json:"weight"`
	Temperature   string `json:"temperature"`
}

// PrivacySettings holds the user's data-sharing preferences.
type PrivacySettings struct {
	DataSharing bool `json:"dataSharing"`
	Analytics   bool `json:"analytics"`
}

// AppSettings is the singleton settings record inside the document.
type AppSettings struct {
	NotificationsEnabled bool            `json:"notificationsEnabled"`
	ReminderSound        string          `json:"reminderSound"`
	Theme                string          `json:"theme"`
	Units                UnitSettings    `json:"units"`
	Privacy              PrivacySettings `json:"privacySettings"`
}

// Document is the root record holding all collections plus settings. It is the
// single unit of persistence: every mutation rewrites the whole document.
type Document struct {
	Medications           []Medication           `json:"medications"`
	BloodPressureReadings []BloodPressureReading `json:"bloodPressureReadings"`
	TherapySessions       []TherapySession       `json:"therapySessions"`
	Settings              AppSettings            `json:"settings"`
	LastUpdated           time.Time              `json:"lastUpdated"`
}

// NextDose names the medication whose active reminder fires soonest.
type NextDose struct {
	Medication string `json:"medication"`
	Time       string `json:"time"` // "HH:MM"
}

// BPAverage is a rounded mean over a window of readings.
type BPAverage struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// MedicationSummary is the medications section of the health summary.
type MedicationSummary struct {
	Total       int       `json:"total"`
	Active      int       `json:"active"`
	NextDose    *NextDose `json:"nextDose,omitempty"`
	Adherence7d int       `json:"adherence7d"`
}

// BloodPressureSummary is the blood-pressure section of the health summary.
type BloodPressureSummary struct {
	LastReading *BloodPressureReading `json:"lastReading,omitempty"`
	Average7d   *BPAverage            `json:"average7d,omitempty"`
	Trend       Trend                 `json:"trend"`
}

// TherapySummary is the therapy section of the health summary.
type TherapySummary struct {
	TodaySessions int             `json:"todaySessions"`
	LastSession   *TherapySession `json:"lastSession,omitempty"`
	WeeklyGoal    int             `json:"weeklyGoal"`
}

// HealthSummary is the derived view model for the home screen.
type HealthSummary struct {
	Medications   MedicationSummary    `json:"medications"`
	BloodPressure BloodPressureSummary `json:"bloodPressure"`
	Therapy       TherapySummary       `json:"therapy"`
}

// BloodPressureStats summarizes a full list of readings for the BP screen.
type BloodPressureStats struct {
	AverageSystolic  int                   `json:"averageSystolic"`
	AverageDiastolic int                   `json:"averageDiastolic"`
	AveragePulse     *int                  `json:"averagePulse,omitempty"`
	ReadingsCount    int                   `json:"readingsCount"`
	LastReading      *BloodPressureReading `json:"lastReading,omitempty"`
	Trend            Trend                 `json:"trend"`
}

// NewID generates an opaque record id. Callers may also supply their own.
func NewID() string {
	return uuid.NewString()
}

// DefaultSettings returns the settings a fresh document starts with.
func DefaultSettings() AppSettings {
	return AppSettings{
		NotificationsEnabled: true,
		ReminderSound:        "default",
		Theme:                "auto",
		Units: UnitSettings{
			BloodPressure: "mmHg",
			Weight:        "kg",
			Temperature:   "celsius",
		},
		Privacy: PrivacySettings{
			DataSharing: false,
			Analytics:   true,
		},
	}
}

// DefaultDocument returns the empty document created on first run.
func DefaultDocument() *Document {
	return &Document{
		Medications:           []Medication{},
		BloodPressureReadings: []BloodPressureReading{},
		TherapySessions:       []TherapySession{},
		Settings:              DefaultSettings(),
		LastUpdated:           time.Now(),
	}
}
