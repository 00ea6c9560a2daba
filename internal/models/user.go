package models

import (
	"time"

	"github.com/google/uuid"
)

const UsersTable = "users"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleMinistryHead Role = "Ministry Head"
	RoleCOS          Role = "COS"
	RoleDGroupLeader Role = "DGroup Leader"
)

// Roles is the closed set shared by signup validation, token issuance and
// authorization checks.
var Roles = []Role{RoleAdmin, RoleMinistryHead, RoleCOS, RoleDGroupLeader}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// SelfAssignable reports whether a new account may pick this role at signup.
func (r Role) SelfAssignable() bool {
	return r.Valid() && !r.IsAdmin()
}

type User struct {
	ID            uuid.UUID `json:"user_id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	ContactNumber string    `json:"contact_number"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

type SignupRequest struct {
	FullName      string `json:"full_name" validate:"required,max=120"`
	Email         string `json:"email" validate:"required,email"`
	ContactNumber string `json:"contact_number" validate:"required,max=32"`
	Role          Role   `json:"role" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate lists the only fields a user may change on their own record.
// Anything else in the request body is dropped during decoding.
type ProfileUpdate struct {
	FullName      *string `json:"full_name" validate:"omitempty,min=1,max=120"`
	ContactNumber *string `json:"contact_number" validate:"omitempty,min=1,max=32"`
}

func (p ProfileUpdate) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.FullName != nil {
		fields["full_name"] = *p.FullName
	}
	if p.ContactNumber != nil {
		fields["contact_number"] = *p.ContactNumber
	}
	return fields
}
