package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/notify"
)

type BookingLookup interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
}

// ChangeRequestService handles requests to alter a booking. Reviewing one
// never touches the booking itself.
type ChangeRequestService struct {
	requests models.ChangeRequestRepo
	bookings BookingLookup
	notifier notify.Dispatcher
	logger   *slog.Logger
	now      func() time.Time
}

func NewChangeRequestService(requests models.ChangeRequestRepo, bookings BookingLookup, notifier notify.Dispatcher, logger *slog.Logger) *ChangeRequestService {
	return &ChangeRequestService{
		requests: requests,
		bookings: bookings,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (cs *ChangeRequestService) Submit(ctx context.Context, actor Actor, input *models.ChangeRequestInput) (*models.ChangeRequest, error) {
	input.Description = strings.TrimSpace(input.Description)
	if err := validate(input); err != nil {
		return nil, err
	}
	bookingID, err := models.ParseBookingID(input.BookingID)
	if err != nil {
		return nil, err
	}

	booking, err := cs.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && booking.UserID != actor.ID {
		return nil, models.ForbiddenError{Msg: "You can only request changes to your own bookings"}
	}

	created, err := cs.requests.InsertChangeRequest(ctx, &models.ChangeRequest{
		BookingID:   booking.ID,
		UserID:      actor.ID,
		EventName:   booking.EventName,
		Description: input.Description,
		Status:      models.ChangePending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create change request: %w", err)
	}
	cs.logger.Info("Change request submitted", "change_request_id", created.ID, "booking_id", booking.DisplayID)
	return created, nil
}

func (cs *ChangeRequestService) ListMine(ctx context.Context, actor Actor) ([]models.ChangeRequest, error) {
	if actor.ID == uuid.Nil {
		return nil, models.AuthError{Msg: "Unauthorized"}
	}
	return cs.requests.ListChangeRequests(ctx, actor.ID)
}

func (cs *ChangeRequestService) ListAll(ctx context.Context, actor Actor) ([]models.ChangeRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return cs.requests.ListChangeRequests(ctx, uuid.Nil)
}

func (cs *ChangeRequestService) Review(ctx context.Context, actor Actor, id int64, review *models.ChangeRequestReview) (*models.ChangeRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !review.Status.Valid() {
		return nil, models.ValidationError{Field: "status", Msg: fmt.Sprintf("invalid status %q", review.Status)}
	}
	if err := validate(review); err != nil {
		return nil, err
	}

	current, err := cs.requests.GetChangeRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(review.Status) {
		return nil, models.ConflictError{
			Resource: "change request",
			Msg:      fmt.Sprintf("invalid transition from %s to %s", current.Status, review.Status),
		}
	}

	fields := map[string]interface{}{
		"status":     string(review.Status),
		"updated_at": cs.now().UTC().Format(time.RFC3339),
	}
	if review.AdminNotes != "" {
		fields["admin_notes"] = review.AdminNotes
	}

	updated, err := cs.requests.UpdateChangeRequest(ctx, id, current.Status, fields)
	if err != nil {
		return nil, err
	}
	cs.logger.Info("Change request reviewed",
		"change_request_id", id,
		"status", updated.Status,
		"admin_id", actor.ID,
	)

	if cs.notifier != nil {
		if err := cs.notifier.Enqueue(ctx, notify.ChangeRequestJob(updated)); err != nil {
			cs.logger.Warn("Failed to enqueue change request email", "change_request_id", id, "error", err)
		}
	}
	return updated, nil
}

func (cs *ChangeRequestService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return cs.requests.DeleteChangeRequest(ctx, id)
}

// ParseChangeRequestID reads a numeric path parameter.
func ParseChangeRequestID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.ValidationError{Field: "id", Msg: fmt.Sprintf("invalid change request id %q", raw)}
	}
	return id, nil
}
