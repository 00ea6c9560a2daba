package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
)

const (
	MinTokenTTL = time.Hour
	MaxTokenTTL = 7 * 24 * time.Hour
	tokenIssuer = "churchbook"
)

// TokenIssuer signs and verifies the backend's own HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// ClampTTL keeps a configured lifetime inside [MinTokenTTL, MaxTokenTTL].
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl < MinTokenTTL {
		return MinTokenTTL
	}
	if ttl > MaxTokenTTL {
		return MaxTokenTTL
	}
	return ttl
}

func (t *TokenIssuer) Issue(user *models.User, ttl time.Duration) (string, time.Time, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", time.Time{}, errors.New("cannot issue token without a user id")
	}
	now := t.now()
	expires := now.Add(ClampTTL(ttl))

	claims := Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, models.AuthError{Msg: "invalid or expired token", Err: err}
	}
	if !token.Valid {
		return nil, models.AuthError{Msg: "invalid or expired token"}
	}
	if claims.UUID() == uuid.Nil || !claims.Role.Valid() {
		return nil, models.AuthError{Msg: "invalid token claims"}
	}
	return claims, nil
}
