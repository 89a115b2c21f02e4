// Package notify models the reminder notification service the health store
// depends on. The store only persists the opaque handles this package returns;
// it never interprets them.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Request describes a recurring daily reminder.
type Request struct {
	Title  string
	Body   string
	Hour   int // [0,23]
	Minute int // [0,59]
}

// Notification is what gets delivered when a reminder fires.
type Notification struct {
	Title string
	Body  string
}

// DeliverFunc receives fired reminders. The default sink logs them.
type DeliverFunc func(Notification)

// Scheduler schedules and cancels recurring reminders. Implementations return
// an opaque handle per scheduled reminder.
type Scheduler interface {
	Schedule(ctx context.Context, req Request) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// CronScheduler runs reminders on an in-process cron, standing in for a
// platform notification service.
type CronScheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	deliver DeliverFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewCronScheduler creates a scheduler delivering through deliver, or through
// the logger when deliver is nil.
func NewCronScheduler(logger *zap.Logger, deliver DeliverFunc) *CronScheduler {
	s := &CronScheduler{
		cron:    cron.New(),
		logger:  logger,
		deliver: deliver,
		entries: make(map[string]cron.EntryID),
	}
	if s.deliver == nil {
		s.deliver = func(n Notification) {
			logger.Info("Reminder", zap.String("title", n.Title), zap.String("body", n.Body))
		}
	}
	return s
}

// Start begins firing scheduled reminders.
func (s *CronScheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running deliveries.
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Schedule registers a daily reminder at the requested time and returns its
// handle.
func (s *CronScheduler) Schedule(ctx context.Context, req Request) (string, error) {
	if req.Hour < 0 || req.Hour > 23 || req.Minute < 0 || req.Minute > 59 {
		return "", fmt.Errorf("invalid reminder time %d:%d", req.Hour, req.Minute)
	}

	notification := Notification{Title: req.Title, Body: req.Body}
	spec := fmt.Sprintf("%d %d * * *", req.Minute, req.Hour)
	id, err := s.cron.AddFunc(spec, func() {
		s.deliver(notification)
	})
	if err != nil {
		return "", fmt.Errorf("failed to schedule reminder: %w", err)
	}

	handle := strconv.Itoa(int(id))
	s.mu.Lock()
	s.entries[handle] = id
	s.mu.Unlock()

	s.logger.Debug("Scheduled reminder",
		zap.String("handle", handle),
		zap.Int("hour", req.Hour),
		zap.Int("minute", req.Minute))
	return handle, nil
}

// Cancel removes a scheduled reminder. Unknown handles are a no-op.
func (s *CronScheduler) Cancel(ctx context.Context, handle string) error {
	s.mu.Lock()
	id, ok := s.entries[handle]
	if ok {
		delete(s.entries, handle)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}

	s.cron.Remove(id)
	return nil
}

// Scheduled reports how many reminders are currently registered.
func (s *CronScheduler) Scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Noop discards all scheduling. Used when notifications are disabled and as a
// test double.
type Noop struct{}

func (Noop) Schedule(ctx context.Context, req Request) (string, error) { return "", nil }
func (Noop) Cancel(ctx context.Context, handle string) error          { return nil }
