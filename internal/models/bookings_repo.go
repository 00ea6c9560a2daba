package models

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

// BookingRepo is the narrow store surface the conflict detector and the
// status state machine depend on.
type BookingRepo interface {
	FindOverlapping(ctx context.Context, venue string, start, end time.Time, statuses []BookingStatus, excludeID int64) ([]Booking, error)
	InsertBooking(ctx context.Context, booking *Booking) (*Booking, error)
	GetBooking(ctx context.Context, id int64) (*Booking, error)
	GetBookings(ctx context.Context, ids []int64) ([]Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	TransitionStatus(ctx context.Context, id int64, from, to BookingStatus) (*Booking, error)
	UpdateBooking(ctx context.Context, id int64, from BookingStatus, fields map[string]interface{}) (*Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
	ClaimReminder(ctx context.Context, id int64) (bool, error)
}

func statusValues(statuses []BookingStatus) []string {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return values
}

func decodeBookings(raw []byte) ([]Booking, error) {
	bookings, err := decodeRows[Booking](raw)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].DisplayID = DisplayIDFor(bookings[i].ID)
	}
	return bookings, nil
}

func firstBooking(raw []byte) (*Booking, error) {
	bookings, err := decodeBookings(raw)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, NotFoundError{Resource: "booking"}
	}
	return &bookings[0], nil
}

func (su *SupabaseRepo) FindOverlapping(ctx context.Context, venue string, start, end time.Time, statuses []BookingStatus, excludeID int64) ([]Booking, error) {
	query := su.supabaseClient.From(BookingsTable).
		Select("*", "", false).
		Eq("venue", venue).
		Lt("start_datetime", stamp(end)).
		Gt("end_datetime", stamp(start))

	if len(statuses) == 1 {
		query = query.Eq("status", string(statuses[0]))
	} else if len(statuses) > 1 {
		query = query.In("status", statusValues(statuses))
	}
	if excludeID > 0 {
		query = query.Neq("id", strconv.FormatInt(excludeID, 10))
	}

	raw, _, err := query.Execute()
	if err != nil {
		return nil, upstream("conflict check", err)
	}
	return decodeBookings(raw)
}

func (su *SupabaseRepo) InsertBooking(ctx context.Context, booking *Booking) (*Booking, error) {
	row := map[string]interface{}{
		"user_id":          booking.UserID,
		"venue":            booking.Venue,
		"event_name":       booking.EventName,
		"purpose":          booking.Purpose,
		"attendees":        booking.Attendees,
		"start_datetime":   stamp(booking.StartDatetime),
		"end_datetime":     stamp(booking.EndDatetime),
		"additional_needs": booking.AdditionalNeeds,
		"status":           booking.Status,
		"reminder_sent":    false,
	}

	raw, _, err := su.supabaseClient.From(BookingsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, upstream("insert booking", err)
	}

	created, err := firstBooking(raw)
	if err != nil {
		return nil, fmt.Errorf("no booking returned after insert: %w", err)
	}
	return created, nil
}

func (su *SupabaseRepo) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	raw, _, err := su.supabaseClient.From(BookingsTable).
		Select("*", "", false).
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return nil, upstream("get booking", err)
	}
	return firstBooking(raw)
}

func (su *SupabaseRepo) GetBookings(ctx context.Context, ids []int64) ([]Booking, error) {
	if len(ids) == 0 {
		return []Booking{}, nil
	}
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, strconv.FormatInt(id, 10))
	}

	raw, _, err := su.supabaseClient.From(BookingsTable).
		Select("*", "", false).
		In("id", values).
		Execute()
	if err != nil {
		return nil, upstream("get bookings", err)
	}
	return decodeBookings(raw)
}

func (su *SupabaseRepo) ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	query := su.supabaseClient.From(BookingsTable).Select("*", "", false)

	if filter.UserID != uuid.Nil {
		query = query.Eq("user_id", filter.UserID.String())
	}
	if filter.Venue != "" {
		query = query.Eq("venue", filter.Venue)
	}
	if len(filter.Statuses) == 1 {
		query = query.Eq("status", string(filter.Statuses[0]))
	} else if len(filter.Statuses) > 1 {
		query = query.In("status", statusValues(filter.Statuses))
	}

	// Filters are keyed by column, so a two sided range on start_datetime
	// has to be expressed as a single and=() group.
	switch {
	case !filter.StartsFrom.IsZero() && !filter.StartsBefore.IsZero():
		query = query.And(fmt.Sprintf("start_datetime.gte.%s,start_datetime.lt.%s",
			stamp(filter.StartsFrom), stamp(filter.StartsBefore)), "")
	case !filter.StartsFrom.IsZero():
		query = query.Gte("start_datetime", stamp(filter.StartsFrom))
	case !filter.StartsBefore.IsZero():
		query = query.Lt("start_datetime", stamp(filter.StartsBefore))
	}

	raw, _, err := query.
		Order("start_datetime", &postgrest.OrderOpts{Ascending: !filter.Descending}).
		Execute()
	if err != nil {
		return nil, upstream("list bookings", err)
	}
	return decodeBookings(raw)
}

// TransitionStatus is a compare-and-set on status: it only updates the row if
// it still holds from.
func (su *SupabaseRepo) TransitionStatus(ctx context.Context, id int64, from, to BookingStatus) (*Booking, error) {
	raw, _, err := su.supabaseClient.From(BookingsTable).
		Update(map[string]interface{}{"status": to}, "representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Eq("status", string(from)).
		Execute()
	if err != nil {
		return nil, upstream("update booking status", err)
	}

	updated, err := firstBooking(raw)
	if IsNotFound(err) {
		return nil, ConflictError{Resource: "booking", Msg: "booking status changed concurrently, reload and retry"}
	}
	return updated, err
}

// UpdateBooking writes fields in one request. A non-empty from makes it a
// compare-and-set on status, so a row changed by someone else is left alone.
func (su *SupabaseRepo) UpdateBooking(ctx context.Context, id int64, from BookingStatus, fields map[string]interface{}) (*Booking, error) {
	if len(fields) == 0 {
		return su.GetBooking(ctx, id)
	}

	query := su.supabaseClient.From(BookingsTable).
		Update(fields, "representation", "").
		Eq("id", strconv.FormatInt(id, 10))
	if from != "" {
		query = query.Eq("status", string(from))
	}

	raw, _, err := query.Execute()
	if err != nil {
		return nil, upstream("update booking", err)
	}
	updated, err := firstBooking(raw)
	if from != "" && IsNotFound(err) {
		return nil, ConflictError{Resource: "booking", Msg: "booking status changed concurrently, reload and retry"}
	}
	return updated, err
}

func (su *SupabaseRepo) DeleteBooking(ctx context.Context, id int64) error {
	raw, _, err := su.supabaseClient.From(BookingsTable).
		Delete("representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return upstream("delete booking", err)
	}
	_, err = firstBooking(raw)
	return err
}

// ClaimReminder flips reminder_sent from false to true and reports whether
// this caller won the flip.
func (su *SupabaseRepo) ClaimReminder(ctx context.Context, id int64) (bool, error) {
	raw, _, err := su.supabaseClient.From(BookingsTable).
		Update(map[string]interface{}{"reminder_sent": true}, "representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Eq("reminder_sent", "false").
		Execute()
	if err != nil {
		return false, upstream("claim reminder", err)
	}
	rows, err := decodeRows[Booking](raw)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
