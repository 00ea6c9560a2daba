package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
)

const notAvailable = "N/A"

type AuditBookingLookup interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookings(ctx context.Context, ids []int64) ([]models.Booking, error)
}

type UserLookup interface {
	GetUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

type AuditService struct {
	audits   models.AuditRepo
	bookings AuditBookingLookup
	users    UserLookup
	logger   *slog.Logger
}

func NewAuditService(audits models.AuditRepo, bookings AuditBookingLookup, users UserLookup, logger *slog.Logger) *AuditService {
	return &AuditService{
		audits:   audits,
		bookings: bookings,
		users:    users,
		logger:   logger,
	}
}

// Record appends a manual audit entry, for example "Reviewed".
func (as *AuditService) Record(ctx context.Context, actor Actor, req *models.AuditLogRequest) (*models.AuditLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if !req.Action.Valid() {
		return nil, models.ValidationError{Field: "action", Msg: fmt.Sprintf("invalid action %q", req.Action)}
	}
	bookingID, err := models.ParseBookingID(req.BookingID)
	if err != nil {
		return nil, err
	}
	if _, err := as.bookings.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}

	entry, err := as.audits.InsertAuditLog(ctx, &models.AuditLog{
		BookingID: bookingID,
		AdminID:   actor.ID,
		Action:    req.Action,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write audit log: %w", err)
	}
	return entry, nil
}

// List returns every entry, newest first, joined with the booking and the
// people involved.
func (as *AuditService) List(ctx context.Context, actor Actor) ([]models.AuditLogView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	entries, err := as.audits.ListAuditLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	if len(entries) == 0 {
		return []models.AuditLogView{}, nil
	}

	bookingIDs := make([]int64, 0, len(entries))
	seenBooking := map[int64]bool{}
	for _, e := range entries {
		if !seenBooking[e.BookingID] {
			seenBooking[e.BookingID] = true
			bookingIDs = append(bookingIDs, e.BookingID)
		}
	}

	bookings := map[int64]models.Booking{}
	if rows, err := as.bookings.GetBookings(ctx, bookingIDs); err != nil {
		as.logger.Warn("Audit log enrichment: failed to load bookings", "error", err)
	} else {
		for _, b := range rows {
			bookings[b.ID] = b
		}
	}

	userIDs := []uuid.UUID{}
	seenUser := map[uuid.UUID]bool{}
	addUser := func(id uuid.UUID) {
		if id != uuid.Nil && !seenUser[id] {
			seenUser[id] = true
			userIDs = append(userIDs, id)
		}
	}
	for _, e := range entries {
		addUser(e.AdminID)
		if b, ok := bookings[e.BookingID]; ok {
			addUser(b.UserID)
		}
	}

	users := map[uuid.UUID]models.User{}
	if rows, err := as.users.GetUsers(ctx, userIDs); err != nil {
		as.logger.Warn("Audit log enrichment: failed to load users", "error", err)
	} else {
		for _, u := range rows {
			users[u.ID] = u
		}
	}

	views := make([]models.AuditLogView, 0, len(entries))
	for _, e := range entries {
		view := models.AuditLogView{
			ID:          e.ID,
			BookingID:   models.DisplayIDFor(e.BookingID),
			EventName:   notAvailable,
			BookerEmail: notAvailable,
			Action:      e.Action,
			Notes:       e.Notes,
			AdminName:   notAvailable,
			AdminEmail:  notAvailable,
			CreatedAt:   e.CreatedAt,
		}
		if b, ok := bookings[e.BookingID]; ok {
			view.EventName = b.EventName
			if booker, ok := users[b.UserID]; ok {
				view.BookerEmail = booker.Email
			}
		}
		if admin, ok := users[e.AdminID]; ok {
			view.AdminName = admin.FullName
			view.AdminEmail = admin.Email
		}
		views = append(views, view)
	}
	return views, nil
}
