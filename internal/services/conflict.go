package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joshua-takyi/churchbook/internal/models"
)

type ConflictPolicy string

const (
	// PolicyApproved only lets Approved bookings block a slot.
	PolicyApproved ConflictPolicy = "approved"
	// PolicyStrict also counts Pending requests.
	PolicyStrict ConflictPolicy = "strict"
)

func ParseConflictPolicy(raw string) (ConflictPolicy, error) {
	switch ConflictPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyApproved:
		return PolicyApproved, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown conflict policy %q (expected approved or strict)", raw)
}

func (p ConflictPolicy) Statuses() []models.BookingStatus {
	if p == PolicyStrict {
		return []models.BookingStatus{models.BookingApproved, models.BookingPending}
	}
	return []models.BookingStatus{models.BookingApproved}
}

type OverlapFinder interface {
	FindOverlapping(ctx context.Context, venue string, start, end time.Time, statuses []models.BookingStatus, excludeID int64) ([]models.Booking, error)
}

// ConflictDetector answers whether a candidate slot collides with stored
// bookings on the same venue.
type ConflictDetector struct {
	store  OverlapFinder
	policy ConflictPolicy
}

func NewConflictDetector(store OverlapFinder, policy ConflictPolicy) *ConflictDetector {
	if policy == "" {
		policy = PolicyApproved
	}
	return &ConflictDetector{store: store, policy: policy}
}

func (d *ConflictDetector) Policy() ConflictPolicy {
	return d.policy
}

func checkRange(start, end time.Time) error {
	if !start.Before(end) {
		return models.ValidationError{Field: "end_datetime", Msg: "End time must be after start time"}
	}
	return nil
}

// Check returns a ConflictError when an overlapping booking exists. A
// positive excludeID leaves that booking out, so a booking never conflicts
// with itself.
func (d *ConflictDetector) Check(ctx context.Context, venue string, start, end time.Time, excludeID int64) error {
	if strings.TrimSpace(venue) == "" {
		return models.ValidationError{Field: "venue", Msg: "is required"}
	}
	if err := checkRange(start, end); err != nil {
		return err
	}

	overlapping, err := d.store.FindOverlapping(ctx, venue, start, end, d.policy.Statuses(), excludeID)
	if err != nil {
		return fmt.Errorf("conflict check failed: %w", err)
	}
	for _, b := range overlapping {
		if b.ID != excludeID && b.Venue == venue && b.Overlaps(start, end) {
			return models.ConflictError{Resource: "booking", Msg: models.VenueConflictMessage}
		}
	}
	return nil
}
