package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/helpers"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
)

const actorKey = "actor"

// ActorResolver loads the current role for a provider-authenticated user.
type ActorResolver interface {
	ResolveActor(ctx context.Context, id uuid.UUID) (services.Actor, error)
}

type Authenticator struct {
	tokens   *helpers.TokenIssuer
	provider *helpers.ProviderVerifier
	actors   ActorResolver
	logger   *slog.Logger
}

// NewAuthenticator accepts our own session tokens and, when provider is not
// nil, access tokens minted by the identity provider.
func NewAuthenticator(tokens *helpers.TokenIssuer, provider *helpers.ProviderVerifier, actors ActorResolver, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		provider: provider,
		actors:   actors,
		logger:   logger,
	}
}

func unauthorized(c *gin.Context, msg string) {
	resp := models.ErrorResponse(msg)
	resp.RequestID = c.GetString(RequestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}

func (a *Authenticator) resolve(c *gin.Context, token string) (services.Actor, error) {
	claims, err := a.tokens.Parse(token)
	if err == nil {
		return services.Actor{ID: claims.UUID(), Email: claims.Email, Role: claims.Role}, nil
	}
	if a.provider == nil {
		return services.Actor{}, err
	}

	id, _, perr := a.provider.Verify(token)
	if perr != nil {
		return services.Actor{}, err
	}
	return a.actors.ResolveActor(c.Request.Context(), id)
}

func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c, "Unauthorized")
			return
		}

		actor, err := a.resolve(c, token)
		if err != nil {
			if !models.IsAuth(err) {
				a.logger.Error("Failed to resolve caller", "request_id", c.GetString(RequestIDKey), "error", err)
			}
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			unauthorized(c, "Unauthorized")
			return
		}
		if !actor.IsAdmin() {
			resp := models.ErrorResponse("Admin access required")
			resp.RequestID = c.GetString(RequestIDKey)
			c.AbortWithStatusJSON(http.StatusForbidden, resp)
			return
		}
		c.Next()
	}
}

func CurrentActor(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}

// SetActor is used by tests that bypass token parsing.
func SetActor(c *gin.Context, actor services.Actor) {
	c.Set(actorKey, actor)
}
