package models

import (
	"time"

	"github.com/google/uuid"
)

const AuditLogsTable = "audit_logs"

type AuditAction string

const (
	AuditReviewed  AuditAction = "Reviewed"
	AuditApproved  AuditAction = "Approved"
	AuditRejected  AuditAction = "Rejected"
	AuditCancelled AuditAction = "Cancelled"
	AuditUpdated   AuditAction = "Updated"
)

var AuditActions = []AuditAction{AuditReviewed, AuditApproved, AuditRejected, AuditCancelled, AuditUpdated}

func (a AuditAction) Valid() bool {
	for _, known := range AuditActions {
		if a == known {
			return true
		}
	}
	return false
}

// AuditActionFor maps a booking status change to the audit action it records.
func AuditActionFor(status BookingStatus) AuditAction {
	return AuditAction(status)
}

type AuditLog struct {
	ID        int64       `json:"id"`
	BookingID int64       `json:"booking_id"`
	AdminID   uuid.UUID   `json:"admin_id"`
	Action    AuditAction `json:"action"`
	Notes     string      `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type AuditLogRequest struct {
	BookingID string      `json:"booking_id" validate:"required"`
	Action    AuditAction `json:"action" validate:"required"`
	Notes     string      `json:"notes" validate:"max=2000"`
}

// AuditLogView is an audit entry joined with the booking and the people
// involved. Missing references render as "N/A".
type AuditLogView struct {
	ID          int64       `json:"id"`
	BookingID   string      `json:"booking_id"`
	EventName   string      `json:"event_name"`
	BookerEmail string      `json:"booker_email"`
	Action      AuditAction `json:"action"`
	Notes       string      `json:"notes,omitempty"`
	AdminName   string      `json:"admin_name"`
	AdminEmail  string      `json:"admin_email"`
	CreatedAt   time.Time   `json:"created_at"`
}
