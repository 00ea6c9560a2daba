package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/notify"
	"github.com/robfig/cron/v3"
)

const DefaultReminderSchedule = "0 * * * *"

type ReminderStore interface {
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	ClaimReminder(ctx context.Context, id int64) (bool, error)
}

// ReminderService emails requesters a day before an approved booking starts.
type ReminderService struct {
	bookings ReminderStore
	notifier notify.Dispatcher
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func NewReminderService(bookings ReminderStore, notifier notify.Dispatcher, loc *time.Location, logger *slog.Logger) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{
		bookings: bookings,
		notifier: notifier,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Window returns the hour-aligned range starting 24 hours after now.
func Window(now time.Time) (time.Time, time.Time) {
	start := now.Add(24 * time.Hour).Truncate(time.Hour)
	return start, start.Add(time.Hour)
}

// RunOnce scans the window and enqueues one reminder per booking. The
// reminder_sent flag is claimed first, so overlapping runs never send twice.
func (rs *ReminderService) RunOnce(ctx context.Context) (int, error) {
	from, to := Window(rs.now())
	due, err := rs.bookings.ListBookings(ctx, models.BookingFilter{
		Statuses:     []models.BookingStatus{models.BookingApproved},
		StartsFrom:   from,
		StartsBefore: to,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list bookings due for reminder: %w", err)
	}

	sent := 0
	for i := range due {
		b := &due[i]
		if b.ReminderSent {
			continue
		}
		claimed, err := rs.bookings.ClaimReminder(ctx, b.ID)
		if err != nil {
			rs.logger.Warn("Failed to claim reminder", "booking_id", b.DisplayID, "error", err)
			continue
		}
		if !claimed {
			continue
		}
		if err := rs.notifier.Enqueue(ctx, notify.BookingReminderJob(b, rs.loc)); err != nil {
			rs.logger.Warn("Failed to enqueue reminder", "booking_id", b.DisplayID, "error", err)
			continue
		}
		sent++
	}

	rs.logger.Info("Reminder scan finished",
		"window_start", from,
		"window_end", to,
		"due", len(due),
		"enqueued", sent,
	)
	return sent, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// StartScheduler registers the reminder scan and starts the cron runner.
// The caller stops it with Stop on shutdown.
func (rs *ReminderService) StartScheduler(ctx context.Context, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultReminderSchedule
	}
	cl := cronLogger{logger: rs.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	_, err := c.AddFunc(schedule, func() {
		if _, err := rs.RunOnce(ctx); err != nil {
			rs.logger.Error("Reminder scan failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	c.Start()
	rs.logger.Info("Reminder scheduler started", "schedule", schedule)
	return c, nil
}
