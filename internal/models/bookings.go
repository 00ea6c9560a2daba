package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	BookingsTable        = "bookings"
	VenueConflictMessage = "This venue is already booked for the selected date and time. Please choose a different schedule or venue."
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingApproved  BookingStatus = "Approved"
	BookingRejected  BookingStatus = "Rejected"
	BookingCancelled BookingStatus = "Cancelled"
)

var BookingStatuses = []BookingStatus{BookingPending, BookingApproved, BookingRejected, BookingCancelled}

func (s BookingStatus) Valid() bool {
	for _, known := range BookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// bookingTransitions lists every legal status change. Rejected and Cancelled
// are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:  {BookingApproved, BookingRejected, BookingCancelled},
	BookingApproved: {BookingCancelled},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

type Booking struct {
	ID              int64         `json:"id" gorm:"column:id;primaryKey"`
	DisplayID       string        `json:"display_id" gorm:"-"`
	UserID          uuid.UUID     `json:"user_id" gorm:"column:user_id"`
	Venue           string        `json:"venue" gorm:"column:venue"`
	EventName       string        `json:"event_name" gorm:"column:event_name"`
	Purpose         string        `json:"purpose" gorm:"column:purpose"`
	Attendees       int           `json:"attendees" gorm:"column:attendees"`
	StartDatetime   time.Time     `json:"start_datetime" gorm:"column:start_datetime"`
	EndDatetime     time.Time     `json:"end_datetime" gorm:"column:end_datetime"`
	AdditionalNeeds string        `json:"additional_needs" gorm:"column:additional_needs"`
	Status          BookingStatus `json:"status" gorm:"column:status"`
	ReminderSent    bool          `json:"reminder_sent" gorm:"column:reminder_sent"`
	CreatedAt       time.Time     `json:"created_at" gorm:"column:created_at"`
}

func (Booking) TableName() string { return BookingsTable }

// DisplayIDFor formats the human readable identifier for a numeric key.
func DisplayIDFor(id int64) string {
	return fmt.Sprintf("BK-%06d", id)
}

// ParseBookingID accepts either the numeric key or its display form.
func ParseBookingID(raw string) (int64, error) {
	trimmed := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(raw)), "BK-")
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, ValidationError{Field: "id", Msg: fmt.Sprintf("invalid booking id %q", raw)}
	}
	return id, nil
}

// Overlaps uses strict inequalities, so back-to-back ranges do not overlap.
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.StartDatetime.Before(end) && b.EndDatetime.After(start)
}

type BookingRequest struct {
	EventName       string `json:"event_name" validate:"required,max=200"`
	Purpose         string `json:"purpose" validate:"required,max=2000"`
	Attendees       int    `json:"attendees" validate:"required,gt=0"`
	Venue           string `json:"venue" validate:"required,max=120"`
	StartDatetime   string `json:"start_datetime" validate:"required"`
	EndDatetime     string `json:"end_datetime" validate:"required"`
	AdditionalNeeds string `json:"additional_needs" validate:"max=2000"`
}

// BookingPatch is the administrator's full-field edit. A Status here goes
// through the same transition rules as the status endpoint.
type BookingPatch struct {
	EventName       *string        `json:"event_name" validate:"omitempty,min=1,max=200"`
	Purpose         *string        `json:"purpose" validate:"omitempty,min=1,max=2000"`
	Attendees       *int           `json:"attendees" validate:"omitempty,gt=0"`
	Venue           *string        `json:"venue" validate:"omitempty,min=1,max=120"`
	StartDatetime   *string        `json:"start_datetime"`
	EndDatetime     *string        `json:"end_datetime"`
	AdditionalNeeds *string        `json:"additional_needs" validate:"omitempty,max=2000"`
	Status          *BookingStatus `json:"status"`
	Notes           string         `json:"notes"`
}

type StatusChange struct {
	Status BookingStatus `json:"status" validate:"required"`
	Notes  string        `json:"notes" validate:"max=2000"`
}

// BookingFilter narrows a booking listing. Zero values mean "no constraint".
type BookingFilter struct {
	UserID       uuid.UUID
	Venue        string
	Statuses     []BookingStatus
	StartsFrom   time.Time
	StartsBefore time.Time
	Descending   bool
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp accepts RFC3339 and the zone-less forms HTML datetime inputs
// send. Zone-less values are read in loc.
func ParseTimestamp(field, value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ValidationError{Field: field, Msg: "is required"}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ValidationError{Field: field, Msg: "invalid date format"}
}
