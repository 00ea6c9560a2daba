package helpers

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
)

// Claims is the identity attached to every authenticated request, whether it
// came from a session token or from a provider access token.
type Claims struct {
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return c.Role.IsAdmin()
}

func (c *Claims) HasRole(role models.Role) bool {
	return c.Role == role
}

func (c *Claims) UUID() uuid.UUID {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (c *Claims) IsOwner(userID uuid.UUID) bool {
	return userID != uuid.Nil && c.UUID() == userID
}
