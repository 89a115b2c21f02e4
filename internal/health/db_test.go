package health

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/medtrack/medtrack-cli/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestKV(t *testing.T) *storage.KV {
	kv, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func setupTestDatabase(t *testing.T) (*Database, *storage.KV) {
	kv := setupTestKV(t)
	logger, _ := zap.NewDevelopment()
	return NewDatabase(kv, logger), kv
}

func testMedication(name string) Medication {
	now := time.Now()
	return Medication{
		ID:              NewID(),
		Name:            name,
		Usage:           "with water",
		DosagePerIntake: 1,
		TimesPerDay:     2,
		Reminders: []Reminder{
			{NotificationID: "n1", Hour: 8, Minute: 0, IsActive: true},
			{NotificationID: "n2", Hour: 20, Minute: 0, IsActive: true},
		},
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
}

func TestDatabase_InitializeCreatesDefaultDocument(t *testing.T) {
	db, kv := setupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.Initialize(ctx))

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	assert.Empty(t, meds)

	settings, err := db.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.NotificationsEnabled)
	assert.Equal(t, "default", settings.ReminderSound)
	assert.Equal(t, "auto", settings.Theme)
	assert.Equal(t, "mmHg", settings.Units.BloodPressure)
	assert.False(t, settings.Privacy.DataSharing)

	// First run persists the default document.
	raw, err := kv.Get(DatabaseKey)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestDatabase_InitializeIsIdempotent(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.Initialize(ctx))
	require.NoError(t, db.AddMedication(ctx, testMedication("Lisinopril")))

	// A second Initialize must not reload and clobber in-memory state.
	require.NoError(t, db.Initialize(ctx))

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	assert.Len(t, meds, 1)
}

func TestDatabase_PersistsAcrossInstances(t *testing.T) {
	db, kv := setupTestDatabase(t)
	ctx := context.Background()

	med := testMedication("Metformin")
	require.NoError(t, db.AddMedication(ctx, med))

	logger, _ := zap.NewDevelopment()
	reopened := NewDatabase(kv, logger)
	meds, err := reopened.Medications(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, med.ID, meds[0].ID)
	assert.Equal(t, "Metformin", meds[0].Name)
	assert.Len(t, meds[0].Reminders, 2)
	// Timestamps survive the JSON round trip.
	assert.WithinDuration(t, med.CreatedAt, meds[0].CreatedAt, time.Second)
}

func TestDatabase_AddDeleteRoundTrip(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()
	require.NoError(t, db.Initialize(ctx))

	before, err := db.BloodPressureReadings(ctx)
	require.NoError(t, err)
	updatedBefore, err := db.LastUpdated(ctx)
	require.NoError(t, err)

	id := NewID()
	require.NoError(t, db.AddBloodPressureReading(ctx, BloodPressureReading{
		ID: id, Systolic: 120, Diastolic: 80, Timestamp: time.Now(),
	}))
	require.NoError(t, db.DeleteBloodPressureReading(ctx, id))

	after, err := db.BloodPressureReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	updatedAfter, err := db.LastUpdated(ctx)
	require.NoError(t, err)
	assert.False(t, updatedAfter.Before(updatedBefore))
}

func TestDatabase_ReadingsKeepInsertionOrderNewestFirst(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	now := time.Now()
	first := BloodPressureReading{ID: "a", Systolic: 120, Diastolic: 80, Timestamp: now}
	// Deliberately older timestamp inserted later: insertion order still wins.
	second := BloodPressureReading{ID: "b", Systolic: 130, Diastolic: 85, Timestamp: now.Add(-time.Hour)}

	require.NoError(t, db.AddBloodPressureReading(ctx, first))
	require.NoError(t, db.AddBloodPressureReading(ctx, second))

	readings, err := db.BloodPressureReadings(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "b", readings[0].ID)
	assert.Equal(t, "a", readings[1].ID)
}

func TestDatabase_MedicationsAppendInOrder(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.AddMedication(ctx, testMedication("First")))
	require.NoError(t, db.AddMedication(ctx, testMedication("Second")))

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 2)
	assert.Equal(t, "First", meds[0].Name)
	assert.Equal(t, "Second", meds[1].Name)
}

func TestDatabase_UpdateMedicationMergesPartialFields(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	med := testMedication("Lisinopril")
	require.NoError(t, db.AddMedication(ctx, med))

	newName := "Lisinopril 20mg"
	inactive := false
	require.NoError(t, db.UpdateMedication(ctx, med.ID, MedicationUpdate{
		Name:     &newName,
		IsActive: &inactive,
	}))

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Lisinopril 20mg", meds[0].Name)
	assert.False(t, meds[0].IsActive)
	// Untouched fields survive the merge.
	assert.Equal(t, "with water", meds[0].Usage)
	assert.Equal(t, 2, meds[0].TimesPerDay)
	assert.False(t, meds[0].UpdatedAt.Before(med.UpdatedAt))
}

func TestDatabase_UpdateUnknownMedicationIsNoOp(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	name := "Ghost"
	require.NoError(t, db.UpdateMedication(ctx, "missing", MedicationUpdate{Name: &name}))

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	assert.Empty(t, meds)
}

func TestDatabase_DeleteIsIdempotent(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	med := testMedication("Aspirin")
	require.NoError(t, db.AddMedication(ctx, med))
	require.NoError(t, db.DeleteMedication(ctx, med.ID))
	require.NoError(t, db.DeleteMedication(ctx, med.ID))

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	assert.Empty(t, meds)
}

func TestDatabase_TherapySessionsPrepend(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.AddTherapySession(ctx, TherapySession{
		ID: "s1", Type: TherapyExercise, Title: "Walk", Timestamp: time.Now(),
	}))
	require.NoError(t, db.AddTherapySession(ctx, TherapySession{
		ID: "s2", Type: TherapyDiet, Title: "Meal plan", Timestamp: time.Now(),
	}))

	sessions, err := db.TherapySessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)

	require.NoError(t, db.DeleteTherapySession(ctx, "s2"))
	sessions, err = db.TherapySessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
}

func TestDatabase_GettersReturnCopies(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.AddMedication(ctx, testMedication("Original")))

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	meds[0].Name = "Mutated"
	meds[0].Reminders[0].Hour = 3

	fresh, err := db.Medications(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Original", fresh[0].Name)
	assert.Equal(t, 8, fresh[0].Reminders[0].Hour)
}

func TestDatabase_GettersCopyPointerFields(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	pulse := 60
	require.NoError(t, db.AddBloodPressureReading(ctx, BloodPressureReading{
		ID:        NewID(),
		Systolic:  120,
		Diastolic: 80,
		Pulse:     &pulse,
		Timestamp: time.Now(),
	}))

	readings, err := db.BloodPressureReadings(ctx)
	require.NoError(t, err)
	*readings[0].Pulse = 999

	fresh, err := db.BloodPressureReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, *fresh[0].Pulse)

	lastTaken := time.Now().Add(-time.Hour)
	med := testMedication("Aspirin")
	med.Adherence = &AdherenceData{TakenDoses: 3, LastTaken: &lastTaken}
	require.NoError(t, db.AddMedication(ctx, med))

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	*meds[0].Adherence.LastTaken = lastTaken.Add(48 * time.Hour)

	freshMeds, err := db.Medications(ctx)
	require.NoError(t, err)
	assert.True(t, freshMeds[0].Adherence.LastTaken.Equal(lastTaken))

	duration := 30
	require.NoError(t, db.AddTherapySession(ctx, TherapySession{
		ID:        NewID(),
		Type:      TherapyExercise,
		Title:     "Walk",
		Duration:  &duration,
		Timestamp: time.Now(),
	}))

	sessions, err := db.TherapySessions(ctx)
	require.NoError(t, err)
	*sessions[0].Duration = 999

	freshSessions, err := db.TherapySessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, *freshSessions[0].Duration)
}

func TestDatabase_UpdateSettingsMerges(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	disabled := false
	theme := "dark"
	require.NoError(t, db.UpdateSettings(ctx, SettingsUpdate{
		NotificationsEnabled: &disabled,
		Theme:                &theme,
	}))

	settings, err := db.Settings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.NotificationsEnabled)
	assert.Equal(t, "dark", settings.Theme)
	// Untouched fields keep their defaults.
	assert.Equal(t, "default", settings.ReminderSound)
	assert.Equal(t, "kg", settings.Units.Weight)
}

func TestDatabase_CorruptDocumentFallsBackToDefaults(t *testing.T) {
	kv := setupTestKV(t)
	require.NoError(t, kv.Set(DatabaseKey, []byte("{not valid json")))

	logger, _ := zap.NewDevelopment()
	db := NewDatabase(kv, logger)
	ctx := context.Background()

	require.NoError(t, db.Initialize(ctx))

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	assert.Empty(t, meds)

	settings, err := db.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.NotificationsEnabled)
}

func TestDatabase_HealthSummaryFromStore(t *testing.T) {
	db, _ := setupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.AddMedication(ctx, testMedication("Lisinopril")))
	require.NoError(t, db.AddBloodPressureReading(ctx, BloodPressureReading{
		ID: NewID(), Systolic: 120, Diastolic: 80, Timestamp: time.Now(),
	}))

	summary, err := db.HealthSummary(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Medications.Total)
	assert.Equal(t, 1, summary.Medications.Active)
	require.NotNil(t, summary.Medications.NextDose)
	require.NotNil(t, summary.BloodPressure.LastReading)
	assert.Equal(t, 120, summary.BloodPressure.LastReading.Systolic)
}

func TestDatabase_MigrateFromOldStorage(t *testing.T) {
	kv := setupTestKV(t)

	legacy := []map[string]interface{}{
		{
			"id":              "old-1",
			"name":            "Enalapril",
			"usage":           "before breakfast",
			"dosagePerIntake": 1,
			"timesPerDay":     1,
			"reminders": []map[string]interface{}{
				{"notificationId": "legacy-n1", "hour": 7, "minute": 30},
			},
		},
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, kv.Set(LegacyMedicationsKey, raw))

	logger, _ := zap.NewDevelopment()
	db := NewDatabase(kv, logger)
	ctx := context.Background()

	db.MigrateFromOldStorage(ctx)

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "old-1", meds[0].ID)
	assert.Equal(t, "Enalapril", meds[0].Name)
	assert.True(t, meds[0].IsActive)
	assert.False(t, meds[0].CreatedAt.IsZero())
	require.Len(t, meds[0].Reminders, 1)
	assert.True(t, meds[0].Reminders[0].IsActive)
	assert.Equal(t, "legacy-n1", meds[0].Reminders[0].NotificationID)
	assert.Equal(t, 7, meds[0].Reminders[0].Hour)

	// Legacy key is gone after a successful migration.
	_, err = kv.Get(LegacyMedicationsKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Running migration again is a no-op.
	require.NoError(t, db.AddMedication(ctx, testMedication("New Med")))
	db.MigrateFromOldStorage(ctx)

	meds, err = db.Medications(ctx)
	require.NoError(t, err)
	assert.Len(t, meds, 2)
}

func TestDatabase_MigrationSwallowsBadLegacyData(t *testing.T) {
	kv := setupTestKV(t)
	require.NoError(t, kv.Set(LegacyMedicationsKey, []byte("not an array")))

	logger, _ := zap.NewDevelopment()
	db := NewDatabase(kv, logger)
	ctx := context.Background()

	db.MigrateFromOldStorage(ctx)

	meds, err := db.Medications(ctx)
	require.NoError(t, err)
	assert.Empty(t, meds)

	// Unparseable legacy data stays in place for a later fix.
	raw, err := kv.Get(LegacyMedicationsKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("not an array"), raw)
}
