package models

import (
	"time"

	"github.com/google/uuid"
)

const ChangeRequestsTable = "change_requests"

type ChangeRequestStatus string

const (
	ChangePending  ChangeRequestStatus = "Pending"
	ChangeApproved ChangeRequestStatus = "Approved"
	ChangeRejected ChangeRequestStatus = "Rejected"
)

func (s ChangeRequestStatus) Valid() bool {
	switch s {
	case ChangePending, ChangeApproved, ChangeRejected:
		return true
	}
	return false
}

func (s ChangeRequestStatus) CanTransitionTo(next ChangeRequestStatus) bool {
	return s == ChangePending && (next == ChangeApproved || next == ChangeRejected)
}

type ChangeRequest struct {
	ID          int64               `json:"id"`
	BookingID   int64               `json:"booking_id"`
	UserID      uuid.UUID           `json:"user_id"`
	EventName   string              `json:"event_name"`
	Description string              `json:"description"`
	Status      ChangeRequestStatus `json:"status"`
	AdminNotes  *string             `json:"admin_notes"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   *time.Time          `json:"updated_at"`
}

type ChangeRequestInput struct {
	BookingID   string `json:"booking_id" validate:"required"`
	Description string `json:"description" validate:"required,max=4000"`
}

type ChangeRequestReview struct {
	Status     ChangeRequestStatus `json:"status" validate:"required"`
	AdminNotes string              `json:"admin_notes" validate:"max=2000"`
}
