package services

import (
	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
)

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return models.ForbiddenError{Msg: "Admin access required"}
	}
	return nil
}
