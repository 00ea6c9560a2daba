package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/churchbook/internal/models"
)

const notificationStatsWindow = 30 * 24 * time.Hour

type UserCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

type Counts struct {
	TotalBookings    int                  `json:"total_bookings"`
	PendingBookings  int                  `json:"pending_bookings"`
	UpcomingApproved int                  `json:"upcoming_approved"`
	TotalUsers       int                  `json:"total_users"`
	Notifications    *models.AttemptStats `json:"notifications,omitempty"`
}

type MetricsService struct {
	bookings BookingLister
	users    UserCounter
	attempts models.DeliveryLog
	logger   *slog.Logger
	now      func() time.Time
}

// NewMetricsService builds the dashboard counters. attempts may be nil.
func NewMetricsService(bookings BookingLister, users UserCounter, attempts models.DeliveryLog, logger *slog.Logger) *MetricsService {
	return &MetricsService{
		bookings: bookings,
		users:    users,
		attempts: attempts,
		logger:   logger,
		now:      time.Now,
	}
}

func (ms *MetricsService) Counts(ctx context.Context, actor Actor) (*Counts, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	all, err := ms.bookings.ListBookings(ctx, models.BookingFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	now := ms.now()
	counts := &Counts{TotalBookings: len(all)}
	for _, b := range all {
		switch {
		case b.Status == models.BookingPending:
			counts.PendingBookings++
		case b.Status == models.BookingApproved && !b.StartDatetime.Before(now):
			counts.UpcomingApproved++
		}
	}

	counts.TotalUsers, err = ms.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	if ms.attempts != nil {
		stats, err := ms.attempts.AttemptStats(ctx, now.Add(-notificationStatsWindow))
		if err != nil {
			ms.logger.Warn("Failed to load notification stats", "error", err)
		} else {
			counts.Notifications = stats
		}
	}
	return counts, nil
}
