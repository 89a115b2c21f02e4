// Package health implements the local health-data store: a single JSON document
// holding medications, blood-pressure readings, therapy sessions, and settings,
// persisted wholesale into key-value storage, plus the derived summary and
// blood-pressure classification functions.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	apperrors "github.com/medtrack/medtrack-cli/internal/errors"
	"github.com/medtrack/medtrack-cli/internal/metrics"
	"github.com/medtrack/medtrack-cli/internal/storage"
	"go.uber.org/zap"
)

const (
	// DatabaseKey is the fixed storage key holding the serialized document.
	DatabaseKey = "health_database"
	// LegacyMedicationsKey held a flat medication array in the old storage
	// format. Consumed once by MigrateFromOldStorage and then deleted.
	LegacyMedicationsKey = "medications"
)

// Database owns the in-memory document and its persistence. Construct one per
// process and inject it into whatever owns UI state; tests construct isolated
// instances with in-memory storage.
//
// A storage read that fails or yields an unparseable value never surfaces as an
// error: the database falls back to the default empty document so the rest of
// the app always has a usable one. Callers should expect that a getter can
// legitimately return an empty collection after a corrupt load.
type Database struct {
	kv     *storage.KV
	logger *zap.Logger

	mu  sync.Mutex
	doc *Document
}

// NewDatabase creates a health database on top of kv. Call Initialize before
// use; every accessor also initializes lazily.
func NewDatabase(kv *storage.KV, logger *zap.Logger) *Database {
	return &Database{kv: kv, logger: logger}
}

// Initialize loads the document from storage, creating the default document on
// first run. Idempotent: once the document is in memory, further calls are
// no-ops. On a corrupt stored value the default document is substituted and
// the error is only logged.
func (d *Database) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initLocked(ctx)
}

func (d *Database) initLocked(ctx context.Context) error {
	if d.doc != nil {
		return nil
	}

	raw, err := d.kv.Get(DatabaseKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		d.doc = DefaultDocument()
		metrics.Default().RecordDocumentLoad(true)
		return d.saveLocked()
	case err != nil:
		d.logger.Error("Failed to read health database, using defaults", zap.Error(err))
		metrics.Default().RecordDocumentLoad(false)
		d.doc = DefaultDocument()
		return nil
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		d.logger.Error("Failed to parse health database, using defaults", zap.Error(err))
		metrics.Default().RecordDocumentLoad(false)
		d.doc = DefaultDocument()
		return nil
	}

	normalize(&doc)
	d.doc = &doc
	metrics.Default().RecordDocumentLoad(true)
	return nil
}

// normalize repairs nil collections so callers never see a nil slice.
func normalize(doc *Document) {
	if doc.Medications == nil {
		doc.Medications = []Medication{}
	}
	if doc.BloodPressureReadings == nil {
		doc.BloodPressureReadings = []BloodPressureReading{}
	}
	if doc.TherapySessions == nil {
		doc.TherapySessions = []TherapySession{}
	}
}

// saveLocked stamps LastUpdated and rewrites the whole document. The in-memory
// mutation has already happened by the time this runs: a write failure leaves
// memory ahead of disk, which is logged and reported but not rolled back.
func (d *Database) saveLocked() error {
	d.doc.LastUpdated = time.Now()

	raw, err := json.Marshal(d.doc)
	if err != nil {
		metrics.Default().RecordDocumentSave(false)
		return apperrors.Wrap(err, apperrors.ErrStorageWrite.Code, "failed to marshal health database")
	}
	if err := d.kv.Set(DatabaseKey, raw); err != nil {
		d.logger.Error("Failed to save health database, in-memory state is ahead of disk", zap.Error(err))
		metrics.Default().RecordDocumentSave(false)
		return apperrors.Wrap(err, apperrors.ErrStorageWrite.Code, "failed to save health database")
	}

	metrics.Default().RecordDocumentSave(true)
	return nil
}

// Medication operations

// Medications returns a copy of the medications collection.
func (d *Database) Medications(ctx context.Context) ([]Medication, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return nil, err
	}
	return copyMedications(d.doc.Medications), nil
}

// AddMedication appends a medication and persists the document.
func (d *Database) AddMedication(ctx context.Context, med Medication) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return err
	}

	d.doc.Medications = append(d.doc.Medications, med)
	metrics.Default().RecordMutation("medications")
	return d.saveLocked()
}

// MedicationUpdate carries the fields of a partial medication update. Nil
// fields are left untouched.
type MedicationUpdate struct {
	Name            *string
	Usage           *string
	DosagePerIntake *int
	TimesPerDay     *int
	Reminders       *[]Reminder
	IsActive        *bool
	Adherence       *AdherenceData
}

// UpdateMedication merges update into the medication with the given id and
// bumps its UpdatedAt. An unknown id is a silent no-op.
func (d *Database) UpdateMedication(ctx context.Context, id string, update MedicationUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return err
	}

	for i := range d.doc.Medications {
		if d.doc.Medications[i].ID != id {
			continue
		}

		med := &d.doc.Medications[i]
		if update.Name != nil {
			med.Name = *update.Name
		}
		if update.Usage != nil {
			med.Usage = *update.Usage
		}
		if update.DosagePerIntake != nil {
			med.DosagePerIntake = *update.DosagePerIntake
		}
		if update.TimesPerDay != nil {
			med.TimesPerDay = *update.TimesPerDay
		}
		if update.Reminders != nil {
			med.Reminders = append([]Reminder{}, (*update.Reminders)...)
		}
		if update.IsActive != nil {
			med.IsActive = *update.IsActive
		}
		if update.Adherence != nil {
			adherence := *update.Adherence
			med.Adherence = &adherence
		}
		med.UpdatedAt = time.Now()

		metrics.Default().RecordMutation("medications")
		return d.saveLocked()
	}

	return nil
}

// DeleteMedication removes the medication with the given id. Idempotent.
// Reminder notification handles must be released via the scheduler before the
// medication is deleted; the store does not do that itself.
func (d *Database) DeleteMedication(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return err
	}

	kept := d.doc.Medications[:0]
	for _, med := range d.doc.Medications {
		if med.ID != id {
			kept = append(kept, med)
		}
	}
	if len(kept) == len(d.doc.Medications) {
		return nil
	}

	d.doc.Medications = kept
	metrics.Default().RecordMutation("medications")
	return d.saveLocked()
}

// Blood pressure operations

// BloodPressureReadings returns a copy of the readings collection,
// most-recently-inserted first.
func (d *Database) BloodPressureReadings(ctx context.Context) ([]BloodPressureReading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return nil, err
	}
	return copyReadings(d.doc.BloodPressureReadings), nil
}

// AddBloodPressureReading prepends a reading, keeping the collection in
// reverse-chronological insertion order: index 0 is always the last reading
// added, regardless of its timestamp.
func (d *Database) AddBloodPressureReading(ctx context.Context, reading BloodPressureReading) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return err
	}

	d.doc.BloodPressureReadings = append([]BloodPressureReading{reading}, d.doc.BloodPressureReadings...)
	metrics.Default().RecordMutation("blood_pressure")
	return d.saveLocked()
}

// DeleteBloodPressureReading removes the reading with the given id. Idempotent.
func (d *Database) DeleteBloodPressureReading(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return err
	}

	kept := d.doc.BloodPressureReadings[:0]
	for _, reading := range d.doc.BloodPressureReadings {
		if reading.ID != id {
			kept = append(kept, reading)
		}
	}
	if len(kept) == len(d.doc.BloodPressureReadings) {
		return nil
	}

	d.doc.BloodPressureReadings = kept
	metrics.Default().RecordMutation("blood_pressure")
	return d.saveLocked()
}

// Therapy session operations

// TherapySessions returns a copy of the sessions collection,
// most-recently-inserted first.
func (d *Database) TherapySessions(ctx context.Context) ([]TherapySession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return nil, err
	}
	return copyTherapySessions(d.doc.TherapySessions), nil
}

// AddTherapySession prepends a session, same ordering rule as readings.
func (d *Database) AddTherapySession(ctx context.Context, session TherapySession) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return err
	}

	d.doc.TherapySessions = append([]TherapySession{session}, d.doc.TherapySessions...)
	metrics.Default().RecordMutation("therapy")
	return d.saveLocked()
}

// DeleteTherapySession removes the session with the given id. Idempotent.
func (d *Database) DeleteTherapySession(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return err
	}

	kept := d.doc.TherapySessions[:0]
	for _, session := range d.doc.TherapySessions {
		if session.ID != id {
			kept = append(kept, session)
		}
	}
	if len(kept) == len(d.doc.TherapySessions) {
		return nil
	}

	d.doc.TherapySessions = kept
	metrics.Default().RecordMutation("therapy")
	return d.saveLocked()
}

// Settings operations

// Settings returns the current settings record.
func (d *Database) Settings(ctx context.Context) (AppSettings, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return AppSettings{}, err
	}
	return d.doc.Settings, nil
}

// SettingsUpdate carries the fields of a partial settings update.
type SettingsUpdate struct {
	NotificationsEnabled *bool
	ReminderSound        *string
	Theme                *string
	Units                *UnitSettings
	Privacy              *PrivacySettings
}

// UpdateSettings merges update into the settings record and persists.
func (d *Database) UpdateSettings(ctx context.Context, update SettingsUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return err
	}

	if update.NotificationsEnabled != nil {
		d.doc.Settings.NotificationsEnabled = *update.NotificationsEnabled
	}
	if update.ReminderSound != nil {
		d.doc.Settings.ReminderSound = *update.ReminderSound
	}
	if update.Theme != nil {
		d.doc.Settings.Theme = *update.Theme
	}
	if update.Units != nil {
		d.doc.Settings.Units = *update.Units
	}
	if update.Privacy != nil {
		d.doc.Settings.Privacy = *update.Privacy
	}

	metrics.Default().RecordMutation("settings")
	return d.saveLocked()
}

// LastUpdated reports when the document was last persisted.
func (d *Database) LastUpdated(ctx context.Context) (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return time.Time{}, err
	}
	return d.doc.LastUpdated, nil
}

// HealthSummary computes the home-screen summary as of now.
func (d *Database) HealthSummary(ctx context.Context, now time.Time) (HealthSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		return HealthSummary{}, err
	}

	metrics.Default().RecordSummary()
	return ComputeHealthSummary(d.doc, now), nil
}

// legacyReminder and legacyMedication describe the old flat storage format,
// which carried no timestamps and no active flags.
type legacyReminder struct {
	NotificationID string `json:"notificationId"`
	Hour           int    `json:"hour"`
	Minute         int    `json:"minute"`
}

type legacyMedication struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Usage           string           `json:"usage"`
	DosagePerIntake int              `json:"dosagePerIntake"`
	TimesPerDay     int              `json:"timesPerDay"`
	Reminders       []legacyReminder `json:"reminders"`
}

// MigrateFromOldStorage imports the legacy flat medication list into the
// unified document and deletes the legacy key. Safe to call on every start:
// after the first successful migration the legacy key no longer exists and the
// call is a no-op. All failures are logged and swallowed, leaving both the
// legacy data and the document untouched.
func (d *Database) MigrateFromOldStorage(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initLocked(ctx); err != nil {
		d.logger.Error("Migration skipped, database unavailable", zap.Error(err))
		return
	}

	raw, err := d.kv.Get(LegacyMedicationsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		d.logger.Error("Failed to read legacy medication data", zap.Error(err))
		return
	}

	var legacy []legacyMedication
	if err := json.Unmarshal(raw, &legacy); err != nil {
		d.logger.Error("Failed to parse legacy medication data", zap.Error(err))
		return
	}

	now := time.Now()
	migrated := make([]Medication, 0, len(legacy))
	for _, old := range legacy {
		reminders := make([]Reminder, 0, len(old.Reminders))
		for _, rem := range old.Reminders {
			reminders = append(reminders, Reminder{
				NotificationID: rem.NotificationID,
				Hour:           rem.Hour,
				Minute:         rem.Minute,
				IsActive:       true,
			})
		}
		migrated = append(migrated, Medication{
			ID:              old.ID,
			Name:            old.Name,
			Usage:           old.Usage,
			DosagePerIntake: old.DosagePerIntake,
			TimesPerDay:     old.TimesPerDay,
			Reminders:       reminders,
			CreatedAt:       now,
			UpdatedAt:       now,
			IsActive:        true,
		})
	}

	d.doc.Medications = migrated
	if err := d.saveLocked(); err != nil {
		d.logger.Error("Failed to persist migrated medications", zap.Error(err))
		return
	}

	if err := d.kv.Delete(LegacyMedicationsKey); err != nil {
		d.logger.Error("Failed to remove legacy medication data", zap.Error(err))
		return
	}

	metrics.Default().RecordMigration()
	d.logger.Info("Migrated legacy medication data", zap.Int("count", len(migrated)))
}

func copyMedications(meds []Medication) []Medication {
	out := make([]Medication, len(meds))
	copy(out, meds)
	for i := range out {
		out[i].Reminders = append([]Reminder{}, out[i].Reminders...)
		if out[i].Adherence != nil {
			adherence := *out[i].Adherence
			if adherence.LastTaken != nil {
				lastTaken := *adherence.LastTaken
				adherence.LastTaken = &lastTaken
			}
			out[i].Adherence = &adherence
		}
	}
	return out
}

func copyReadings(readings []BloodPressureReading) []BloodPressureReading {
	out := make([]BloodPressureReading, len(readings))
	copy(out, readings)
	for i := range out {
		if out[i].Pulse != nil {
			pulse := *out[i].Pulse
			out[i].Pulse = &pulse
		}
	}
	return out
}

func copyTherapySessions(sessions []TherapySession) []TherapySession {
	out := make([]TherapySession, len(sessions))
	copy(out, sessions)
	for i := range out {
		if out[i].Duration != nil {
			duration := *out[i].Duration
			out[i].Duration = &duration
		}
		if out[i].Reminder != nil {
			reminder := *out[i].Reminder
			reminder.CustomDays = append([]int{}, out[i].Reminder.CustomDays...)
			out[i].Reminder = &reminder
		}
	}
	return out
}
