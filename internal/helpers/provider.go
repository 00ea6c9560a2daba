package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
)

const providerAudience = "authenticated"

type providerClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ProviderVerifier checks access tokens minted by the identity provider
// against its published JWKS. It only establishes who the caller is.
type ProviderVerifier struct {
	jwks *keyfunc.JWKS
}

func NewProviderVerifier(jwks *keyfunc.JWKS) *ProviderVerifier {
	return &ProviderVerifier{jwks: jwks}
}

// FetchProviderKeys loads the JWKS once and keeps it fresh in the background
// until ctx is cancelled or Close is called.
func FetchProviderKeys(ctx context.Context, jwksURL string, logger *slog.Logger) (*ProviderVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("JWKS refresh failed", "url", jwksURL, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS from %s: %w", jwksURL, err)
	}
	return NewProviderVerifier(jwks), nil
}

func (v *ProviderVerifier) Verify(tokenStr string) (uuid.UUID, string, error) {
	claims := &providerClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, v.jwks.Keyfunc,
		jwt.WithAudience(providerAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, "", models.AuthError{Msg: "invalid or expired token", Err: err}
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", models.AuthError{Msg: "invalid token subject", Err: err}
	}
	return id, claims.Email, nil
}

func (v *ProviderVerifier) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}
