package notify

import (
	"context"
	"fmt"

	"github.com/medtrack/medtrack-cli/internal/health"
	"go.uber.org/zap"
)

// ScheduleMedicationReminders schedules one notification per reminder time and
// fills in the handles on the returned reminders. A reminder whose scheduling
// fails keeps an empty handle but stays active: the medication is still saved
// and the user just misses that one notification.
func ScheduleMedicationReminders(ctx context.Context, sched Scheduler, logger *zap.Logger, med health.Medication) []health.Reminder {
	reminders := make([]health.Reminder, 0, len(med.Reminders))

	for _, rem := range med.Reminders {
		rem.IsActive = true
		handle, err := sched.Schedule(ctx, Request{
			Title:  "Medication Reminder",
			Body:   doseBody(med),
			Hour:   rem.Hour,
			Minute: rem.Minute,
		})
		if err != nil {
			logger.Warn("Failed to schedule medication reminder",
				zap.String("medication", med.Name),
				zap.Int("hour", rem.Hour),
				zap.Int("minute", rem.Minute),
				zap.Error(err))
		} else {
			rem.NotificationID = handle
		}
		reminders = append(reminders, rem)
	}

	return reminders
}

// CancelMedicationReminders releases all notification handles a medication
// owns. Call before deleting the medication from the store.
func CancelMedicationReminders(ctx context.Context, sched Scheduler, logger *zap.Logger, med health.Medication) {
	for _, rem := range med.Reminders {
		if rem.NotificationID == "" {
			continue
		}
		if err := sched.Cancel(ctx, rem.NotificationID); err != nil {
			logger.Warn("Failed to cancel medication reminder",
				zap.String("medication", med.Name),
				zap.String("handle", rem.NotificationID),
				zap.Error(err))
		}
	}
}

func doseBody(med health.Medication) string {
	unit := "pills"
	if med.DosagePerIntake == 1 {
		unit = "pill"
	}
	return fmt.Sprintf("Time to take %d %s of %s", med.DosagePerIntake, unit, med.Name)
}
