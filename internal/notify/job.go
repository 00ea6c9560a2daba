package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
)

const (
	KindBookingCreated      = "booking.created"
	KindBookingApproved     = "booking.approved"
	KindBookingRejected     = "booking.rejected"
	KindBookingCancelled    = "booking.cancelled"
	KindBookingReminder     = "booking.reminder"
	KindChangeRequestReview = "change_request.reviewed"
)

const displayTimeLayout = "Mon, 02 Jan 2006 3:04 PM MST"

// Job is one queued email. The recipient is resolved from UserID when the
// job runs, so enqueueing never touches the record store.
type Job struct {
	Kind            string            `json:"kind"`
	UserID          uuid.UUID         `json:"user_id"`
	BookingID       int64             `json:"booking_id,omitempty"`
	ChangeRequestID int64             `json:"change_request_id,omitempty"`
	Template        string            `json:"template"`
	Subject         string            `json:"subject"`
	Data            map[string]string `json:"data"`
	EnqueuedAt      time.Time         `json:"enqueued_at"`
}

// Dispatcher hands jobs to whatever delivers them. Enqueue must not block on
// delivery itself.
type Dispatcher interface {
	Enqueue(ctx context.Context, job Job) error
	Close() error
}

func formatTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(displayTimeLayout)
}

func bookingData(b *models.Booking, loc *time.Location) map[string]string {
	needs := b.AdditionalNeeds
	if needs == "" {
		needs = "None"
	}
	return map[string]string{
		"booking_id":       models.DisplayIDFor(b.ID),
		"event_name":       b.EventName,
		"purpose":          b.Purpose,
		"venue":            b.Venue,
		"attendees":        strconv.Itoa(b.Attendees),
		"start_datetime":   formatTime(b.StartDatetime, loc),
		"end_datetime":     formatTime(b.EndDatetime, loc),
		"additional_needs": needs,
		"requested_at":     formatTime(b.CreatedAt, loc),
	}
}

func BookingCreatedJob(b *models.Booking, loc *time.Location) Job {
	return Job{
		Kind:      KindBookingCreated,
		UserID:    b.UserID,
		BookingID: b.ID,
		Template:  TemplateBookingRequest,
		Subject:   "Booking Request Submitted",
		Data:      bookingData(b, loc),
	}
}

// BookingDecisionJob builds the email for a status change. It reports false
// for statuses that do not notify the requester.
func BookingDecisionJob(b *models.Booking, notes string, loc *time.Location) (Job, bool) {
	job := Job{
		UserID:    b.UserID,
		BookingID: b.ID,
		Data:      bookingData(b, loc),
	}
	job.Data["notes"] = notes

	switch b.Status {
	case models.BookingApproved:
		job.Kind, job.Template, job.Subject = KindBookingApproved, TemplateBookingApproved, "Booking Approved"
	case models.BookingRejected:
		job.Kind, job.Template, job.Subject = KindBookingRejected, TemplateBookingRejected, "Booking Rejected"
	case models.BookingCancelled:
		job.Kind, job.Template, job.Subject = KindBookingCancelled, TemplateBookingCancelled, "Booking Cancelled"
	default:
		return Job{}, false
	}
	return job, true
}

func BookingReminderJob(b *models.Booking, loc *time.Location) Job {
	return Job{
		Kind:      KindBookingReminder,
		UserID:    b.UserID,
		BookingID: b.ID,
		Template:  TemplateBookingReminder,
		Subject:   "Booking Reminder: 24 Hours Left",
		Data:      bookingData(b, loc),
	}
}

func ChangeRequestJob(cr *models.ChangeRequest) Job {
	notes := ""
	if cr.AdminNotes != nil {
		notes = *cr.AdminNotes
	}
	return Job{
		Kind:            KindChangeRequestReview,
		UserID:          cr.UserID,
		BookingID:       cr.BookingID,
		ChangeRequestID: cr.ID,
		Template:        TemplateChangeRequestStatus,
		Subject:         "Change Request " + string(cr.Status),
		Data: map[string]string{
			"event_name":  cr.EventName,
			"description": cr.Description,
			"status":      string(cr.Status),
			"admin_notes": notes,
		},
	}
}
