package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/notify"
)

// Approver performs writes that leave a booking Approved after an
// authoritative conflict check.
type Approver interface {
	ApproveBooking(ctx context.Context, id int64, conflictStatuses []models.BookingStatus) (*models.Booking, error)
	ApplyApproved(ctx context.Context, id int64, from models.BookingStatus, fields map[string]interface{}, conflictStatuses []models.BookingStatus) (*models.Booking, error)
}

type TransitionResult struct {
	Booking     *models.Booking `json:"booking"`
	AuditLogged bool            `json:"audit_logged"`
}

type BookingService struct {
	bookings  models.BookingRepo
	audits    models.AuditRepo
	detector  *ConflictDetector
	approvals *ConflictDetector
	approver  Approver
	notifier  notify.Dispatcher
	attempts  models.DeliveryLog
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

// NewBookingService wires the lifecycle manager. approver may be nil, in which
// case approval falls back to a store-side check followed by a conditional
// status update.
func NewBookingService(
	bookings models.BookingRepo,
	audits models.AuditRepo,
	approver Approver,
	notifier notify.Dispatcher,
	policy ConflictPolicy,
	loc *time.Location,
	logger *slog.Logger,
) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		bookings:  bookings,
		audits:    audits,
		detector:  NewConflictDetector(bookings, policy),
		approvals: NewConflictDetector(bookings, PolicyApproved),
		approver:  approver,
		notifier:  notifier,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// WithDeliveryLog enables DeliveryAttempts.
func (bs *BookingService) WithDeliveryLog(attempts models.DeliveryLog) *BookingService {
	bs.attempts = attempts
	return bs
}

func (bs *BookingService) Location() *time.Location {
	return bs.loc
}

func (bs *BookingService) enqueue(ctx context.Context, job notify.Job) {
	if bs.notifier == nil {
		return
	}
	if err := bs.notifier.Enqueue(ctx, job); err != nil {
		bs.logger.Warn("Failed to enqueue notification",
			"kind", job.Kind,
			"booking_id", job.BookingID,
			"error", err,
		)
	}
}

func (bs *BookingService) parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := models.ParseTimestamp("start_datetime", startRaw, bs.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := models.ParseTimestamp("end_datetime", endRaw, bs.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := checkRange(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// CreateBooking validates the request, runs the advisory conflict check and
// stores the booking as Pending.
func (bs *BookingService) CreateBooking(ctx context.Context, actor Actor, req *models.BookingRequest) (*models.Booking, error) {
	if actor.ID == uuid.Nil {
		return nil, models.AuthError{Msg: "Unauthorized"}
	}
	req.Venue = strings.TrimSpace(req.Venue)
	req.EventName = strings.TrimSpace(req.EventName)
	if err := validate(req); err != nil {
		return nil, err
	}

	start, end, err := bs.parseRange(req.StartDatetime, req.EndDatetime)
	if err != nil {
		return nil, err
	}
	if err := bs.detector.Check(ctx, req.Venue, start, end, 0); err != nil {
		return nil, err
	}

	created, err := bs.bookings.InsertBooking(ctx, &models.Booking{
		UserID:          actor.ID,
		Venue:           req.Venue,
		EventName:       req.EventName,
		Purpose:         req.Purpose,
		Attendees:       req.Attendees,
		StartDatetime:   start,
		EndDatetime:     end,
		AdditionalNeeds: req.AdditionalNeeds,
		Status:          models.BookingPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	bs.logger.Info("Booking created",
		"booking_id", created.DisplayID,
		"user_id", actor.ID,
		"venue", created.Venue,
	)
	bs.enqueue(ctx, notify.BookingCreatedJob(created, bs.loc))
	return created, nil
}

// GetBooking returns a booking visible to the owner and to administrators.
func (bs *BookingService) GetBooking(ctx context.Context, actor Actor, id int64) (*models.Booking, error) {
	booking, err := bs.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && booking.UserID != actor.ID {
		return nil, models.ForbiddenError{Msg: "You do not have access to this booking"}
	}
	return booking, nil
}

func (bs *BookingService) ListMyBookings(ctx context.Context, actor Actor) ([]models.Booking, error) {
	if actor.ID == uuid.Nil {
		return nil, models.AuthError{Msg: "Unauthorized"}
	}
	return bs.bookings.ListBookings(ctx, models.BookingFilter{UserID: actor.ID})
}

// ListAllBookings returns every live booking, newest first.
func (bs *BookingService) ListAllBookings(ctx context.Context) ([]models.Booking, error) {
	return bs.bookings.ListBookings(ctx, models.BookingFilter{
		Statuses:   []models.BookingStatus{models.BookingPending, models.BookingApproved},
		Descending: true,
	})
}

func (bs *BookingService) ListPendingBookings(ctx context.Context) ([]models.Booking, error) {
	return bs.bookings.ListBookings(ctx, models.BookingFilter{
		Statuses: []models.BookingStatus{models.BookingPending},
	})
}

func (bs *BookingService) ListUpcomingBookings(ctx context.Context) ([]models.Booking, error) {
	return bs.bookings.ListBookings(ctx, models.BookingFilter{
		Statuses:   []models.BookingStatus{models.BookingApproved, models.BookingPending},
		StartsFrom: bs.now(),
	})
}

// ListReviewedBookings returns bookings an administrator already decided on.
func (bs *BookingService) ListReviewedBookings(ctx context.Context) ([]models.Booking, error) {
	return bs.bookings.ListBookings(ctx, models.BookingFilter{
		Statuses:   []models.BookingStatus{models.BookingApproved, models.BookingRejected},
		Descending: true,
	})
}

// ChangeStatus drives one state machine transition. The target is checked
// against the enum before anything is read or written.
func (bs *BookingService) ChangeStatus(ctx context.Context, actor Actor, id int64, change *models.StatusChange) (*TransitionResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !change.Status.Valid() {
		return nil, models.ValidationError{Field: "status", Msg: fmt.Sprintf("invalid status %q", change.Status)}
	}
	if err := validate(change); err != nil {
		return nil, err
	}

	current, err := bs.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := bs.transition(ctx, current, change.Status)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{Booking: updated}
	result.AuditLogged = bs.audit(ctx, actor, updated.ID, models.AuditActionFor(change.Status), change.Notes)

	bs.logger.Info("Booking status changed",
		"booking_id", updated.DisplayID,
		"from", current.Status,
		"to", updated.Status,
		"admin_id", actor.ID,
	)
	if job, ok := notify.BookingDecisionJob(updated, change.Notes, bs.loc); ok {
		bs.enqueue(ctx, job)
	}
	return result, nil
}

func (bs *BookingService) transition(ctx context.Context, current *models.Booking, target models.BookingStatus) (*models.Booking, error) {
	if !current.Status.CanTransitionTo(target) {
		return nil, models.ConflictError{
			Resource: "booking",
			Msg:      fmt.Sprintf("invalid transition from %s to %s", current.Status, target),
		}
	}

	if target != models.BookingApproved {
		return bs.bookings.TransitionStatus(ctx, current.ID, current.Status, target)
	}

	if bs.approver != nil {
		return bs.approver.ApproveBooking(ctx, current.ID, PolicyApproved.Statuses())
	}
	if err := bs.approvals.Check(ctx, current.Venue, current.StartDatetime, current.EndDatetime, current.ID); err != nil {
		return nil, err
	}
	return bs.bookings.TransitionStatus(ctx, current.ID, current.Status, target)
}

// audit appends an entry and reports whether it was stored. A failure never
// undoes the change it describes.
func (bs *BookingService) audit(ctx context.Context, actor Actor, bookingID int64, action models.AuditAction, notes string) bool {
	if bs.audits == nil {
		return false
	}
	_, err := bs.audits.InsertAuditLog(ctx, &models.AuditLog{
		BookingID: bookingID,
		AdminID:   actor.ID,
		Action:    action,
		Notes:     notes,
	})
	if err != nil {
		bs.logger.Error("Failed to write audit log",
			"booking_id", models.DisplayIDFor(bookingID),
			"action", action,
			"error", err,
		)
		return false
	}
	return true
}

// UpdateBooking applies an administrator's edit, status included, as one
// write. A booking that is (or becomes) Approved with a new schedule is
// re-checked against the other Approved bookings in the same step, so a
// refused check leaves the row untouched.
func (bs *BookingService) UpdateBooking(ctx context.Context, actor Actor, id int64, patch *models.BookingPatch) (*TransitionResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, models.ValidationError{Field: "status", Msg: fmt.Sprintf("invalid status %q", *patch.Status)}
	}
	if err := validate(patch); err != nil {
		return nil, err
	}

	current, err := bs.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, venue, start, end, err := bs.patchFields(current, patch)
	if err != nil {
		return nil, err
	}
	edited := len(fields) > 0

	target := current.Status
	statusChange := patch.Status != nil && *patch.Status != current.Status
	if statusChange {
		if !current.Status.CanTransitionTo(*patch.Status) {
			return nil, models.ConflictError{
				Resource: "booking",
				Msg:      fmt.Sprintf("invalid transition from %s to %s", current.Status, *patch.Status),
			}
		}
		target = *patch.Status
		fields["status"] = string(target)
	}
	if len(fields) == 0 {
		return &TransitionResult{Booking: current, AuditLogged: true}, nil
	}

	scheduleChange := venue != current.Venue || !start.Equal(current.StartDatetime) || !end.Equal(current.EndDatetime)
	needsCheck := target == models.BookingApproved && (statusChange || scheduleChange)

	var updated *models.Booking
	switch {
	case needsCheck && bs.approver != nil:
		updated, err = bs.approver.ApplyApproved(ctx, id, current.Status, fields, PolicyApproved.Statuses())
	case needsCheck:
		if err = bs.approvals.Check(ctx, venue, start, end, current.ID); err == nil {
			updated, err = bs.bookings.UpdateBooking(ctx, id, current.Status, fields)
		}
	default:
		updated, err = bs.bookings.UpdateBooking(ctx, id, current.Status, fields)
	}
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{Booking: updated, AuditLogged: true}
	if edited {
		result.AuditLogged = bs.audit(ctx, actor, id, models.AuditUpdated, patch.Notes)
	}
	if statusChange {
		if !bs.audit(ctx, actor, id, models.AuditActionFor(target), patch.Notes) {
			result.AuditLogged = false
		}
		if job, ok := notify.BookingDecisionJob(updated, patch.Notes, bs.loc); ok {
			bs.enqueue(ctx, job)
		}
	}

	bs.logger.Info("Booking updated",
		"booking_id", models.DisplayIDFor(id),
		"status", updated.Status,
		"admin_id", actor.ID,
	)
	return result, nil
}

func (bs *BookingService) patchFields(current *models.Booking, patch *models.BookingPatch) (map[string]interface{}, string, time.Time, time.Time, error) {
	fields := map[string]interface{}{}
	venue, start, end := current.Venue, current.StartDatetime, current.EndDatetime

	if patch.EventName != nil {
		fields["event_name"] = strings.TrimSpace(*patch.EventName)
	}
	if patch.Purpose != nil {
		fields["purpose"] = *patch.Purpose
	}
	if patch.Attendees != nil {
		fields["attendees"] = *patch.Attendees
	}
	if patch.AdditionalNeeds != nil {
		fields["additional_needs"] = *patch.AdditionalNeeds
	}
	if patch.Venue != nil {
		venue = strings.TrimSpace(*patch.Venue)
		fields["venue"] = venue
	}
	if patch.StartDatetime != nil {
		t, err := models.ParseTimestamp("start_datetime", *patch.StartDatetime, bs.loc)
		if err != nil {
			return nil, "", time.Time{}, time.Time{}, err
		}
		start = t
		fields["start_datetime"] = t.UTC().Format(time.RFC3339)
	}
	if patch.EndDatetime != nil {
		t, err := models.ParseTimestamp("end_datetime", *patch.EndDatetime, bs.loc)
		if err != nil {
			return nil, "", time.Time{}, time.Time{}, err
		}
		end = t
		fields["end_datetime"] = t.UTC().Format(time.RFC3339)
	}
	if err := checkRange(start, end); err != nil {
		return nil, "", time.Time{}, time.Time{}, err
	}
	if _, moved := fields["start_datetime"]; moved {
		fields["reminder_sent"] = false
	}
	return fields, venue, start, end, nil
}

func (bs *BookingService) DeleteBooking(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := bs.bookings.DeleteBooking(ctx, id); err != nil {
		return err
	}
	bs.logger.Info("Booking deleted", "booking_id", models.DisplayIDFor(id), "admin_id", actor.ID)
	return nil
}

// DeliveryAttempts lists the recorded email attempts for a booking.
func (bs *BookingService) DeliveryAttempts(ctx context.Context, id int64, limit int) ([]models.NotificationAttempt, error) {
	if bs.attempts == nil {
		return nil, models.NotFoundError{Resource: "delivery log"}
	}
	if _, err := bs.bookings.GetBooking(ctx, id); err != nil {
		return nil, err
	}
	return bs.attempts.ListAttempts(ctx, id, limit)
}
