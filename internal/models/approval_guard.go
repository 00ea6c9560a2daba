package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApprovalGuard performs every write that leaves a booking Approved inside one
// Postgres transaction: the booking row is locked, writers on the same venue
// are serialized with an advisory lock, and the overlap check and the update
// commit together.
type ApprovalGuard struct {
	db *gorm.DB
}

func NewApprovalGuard(db *gorm.DB) *ApprovalGuard {
	return &ApprovalGuard{db: db}
}

// ApproveBooking flips a booking to Approved.
func (g *ApprovalGuard) ApproveBooking(ctx context.Context, id int64, conflictStatuses []BookingStatus) (*Booking, error) {
	return g.commit(ctx, id, nil, conflictStatuses, func(b *Booking) error {
		if !b.Status.CanTransitionTo(BookingApproved) {
			return invalidApproval(b.Status)
		}
		return nil
	})
}

// ApplyApproved writes fields to a booking that is Approved, or becomes
// Approved with this write. from is the status the caller read; the write is
// refused if the row has moved on since.
func (g *ApprovalGuard) ApplyApproved(ctx context.Context, id int64, from BookingStatus, fields map[string]interface{}, conflictStatuses []BookingStatus) (*Booking, error) {
	return g.commit(ctx, id, fields, conflictStatuses, func(b *Booking) error {
		if b.Status != from {
			return ConflictError{Resource: "booking", Msg: "booking status changed concurrently, reload and retry"}
		}
		if b.Status != BookingApproved && !b.Status.CanTransitionTo(BookingApproved) {
			return invalidApproval(b.Status)
		}
		return nil
	})
}

func invalidApproval(from BookingStatus) error {
	return ConflictError{
		Resource: "booking",
		Msg:      fmt.Sprintf("invalid transition from %s to %s", from, BookingApproved),
	}
}

func (g *ApprovalGuard) commit(ctx context.Context, id int64, fields map[string]interface{}, conflictStatuses []BookingStatus, precheck func(*Booking) error) (*Booking, error) {
	var approved Booking

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&booking).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundError{Resource: "booking"}
		}
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if err := precheck(&booking); err != nil {
			return err
		}

		venue, start, end, err := scheduleAfter(booking, fields)
		if err != nil {
			return err
		}

		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", venue).Error; err != nil {
			return fmt.Errorf("lock venue: %w", err)
		}

		var conflicts int64
		err = tx.Model(&Booking{}).
			Where("venue = ? AND status IN ? AND start_datetime < ? AND end_datetime > ? AND id <> ?",
				venue, statusValues(conflictStatuses), end, start, booking.ID).
			Count(&conflicts).Error
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if conflicts > 0 {
			return ConflictError{Resource: "booking", Msg: VenueConflictMessage}
		}

		updates := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			updates[k] = v
		}
		updates["status"] = string(BookingApproved)

		if err := tx.Model(&Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("approve booking: %w", err)
		}
		if err := tx.Where("id = ?", booking.ID).First(&approved).Error; err != nil {
			return fmt.Errorf("reload booking: %w", err)
		}
		approved.DisplayID = DisplayIDFor(approved.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &approved, nil
}

// scheduleAfter overlays the venue and time fields of an update on the
// stored row.
func scheduleAfter(b Booking, fields map[string]interface{}) (string, time.Time, time.Time, error) {
	venue, start, end := b.Venue, b.StartDatetime, b.EndDatetime
	if v, ok := fields["venue"].(string); ok {
		venue = v
	}
	for key, dst := range map[string]*time.Time{"start_datetime": &start, "end_datetime": &end} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case time.Time:
			*dst = v
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return "", time.Time{}, time.Time{}, ValidationError{Field: key, Msg: "invalid date format"}
			}
			*dst = t
		}
	}
	if !end.After(start) {
		return "", time.Time{}, time.Time{}, ValidationError{Field: "end_datetime", Msg: "End time must be after start time"}
	}
	return venue, start, end, nil
}
