package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medtrack/medtrack-cli/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCronScheduler_ScheduleAndCancel(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sched := NewCronScheduler(logger, nil)

	ctx := context.Background()
	handle, err := sched.Schedule(ctx, Request{
		Title:  "Medication Reminder",
		Body:   "Time to take 1 pill of Lisinopril",
		Hour:   8,
		Minute: 30,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, handle)
	assert.Equal(t, 1, sched.Scheduled())

	require.NoError(t, sched.Cancel(ctx, handle))
	assert.Equal(t, 0, sched.Scheduled())
}

func TestCronScheduler_CancelUnknownHandleIsNoOp(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sched := NewCronScheduler(logger, nil)

	require.NoError(t, sched.Cancel(context.Background(), "999"))
}

func TestCronScheduler_RejectsInvalidTimes(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sched := NewCronScheduler(logger, nil)

	_, err := sched.Schedule(context.Background(), Request{Hour: 24, Minute: 0})
	assert.Error(t, err)

	_, err = sched.Schedule(context.Background(), Request{Hour: 12, Minute: 60})
	assert.Error(t, err)
}

func TestCronScheduler_HandlesAreUnique(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sched := NewCronScheduler(logger, nil)

	ctx := context.Background()
	h1, err := sched.Schedule(ctx, Request{Hour: 8, Minute: 0})
	require.NoError(t, err)
	h2, err := sched.Schedule(ctx, Request{Hour: 20, Minute: 0})
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 2, sched.Scheduled())
}

// failingScheduler always fails Schedule, to exercise the degraded path.
type failingScheduler struct{}

func (failingScheduler) Schedule(ctx context.Context, req Request) (string, error) {
	return "", errors.New("permission denied")
}

func (failingScheduler) Cancel(ctx context.Context, handle string) error {
	return errors.New("permission denied")
}

func testMedication() health.Medication {
	now := time.Now()
	return health.Medication{
		ID:              health.NewID(),
		Name:            "Lisinopril",
		DosagePerIntake: 1,
		TimesPerDay:     2,
		Reminders: []health.Reminder{
			{Hour: 8, Minute: 0},
			{Hour: 20, Minute: 0},
		},
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
}

func TestScheduleMedicationReminders_FillsHandles(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sched := NewCronScheduler(logger, nil)

	reminders := ScheduleMedicationReminders(context.Background(), sched, logger, testMedication())

	require.Len(t, reminders, 2)
	for _, rem := range reminders {
		assert.NotEmpty(t, rem.NotificationID)
		assert.True(t, rem.IsActive)
	}
	assert.Equal(t, 2, sched.Scheduled())
}

func TestScheduleMedicationReminders_DegradesOnFailure(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	reminders := ScheduleMedicationReminders(context.Background(), failingScheduler{}, logger, testMedication())

	// Reminders survive without handles; the medication can still be saved.
	require.Len(t, reminders, 2)
	for _, rem := range reminders {
		assert.Empty(t, rem.NotificationID)
		assert.True(t, rem.IsActive)
	}
}

func TestCancelMedicationReminders_ReleasesHandles(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sched := NewCronScheduler(logger, nil)

	med := testMedication()
	med.Reminders = ScheduleMedicationReminders(context.Background(), sched, logger, med)
	require.Equal(t, 2, sched.Scheduled())

	CancelMedicationReminders(context.Background(), sched, logger, med)
	assert.Equal(t, 0, sched.Scheduled())
}

func TestNoopScheduler(t *testing.T) {
	var sched Scheduler = Noop{}

	handle, err := sched.Schedule(context.Background(), Request{Hour: 8, Minute: 0})
	require.NoError(t, err)
	assert.Empty(t, handle)
	require.NoError(t, sched.Cancel(context.Background(), "anything"))
}
