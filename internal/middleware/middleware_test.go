package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/helpers"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubResolver struct{}

func (stubResolver) ResolveActor(ctx context.Context, id uuid.UUID) (services.Actor, error) {
	return services.Actor{ID: id, Role: models.RoleCOS}, nil
}

func newAuthRouter(issuer *helpers.TokenIssuer) *gin.Engine {
	auth := NewAuthenticator(issuer, nil, stubResolver{}, testLogger())
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", auth.AuthMiddleware(), func(c *gin.Context) {
		actor, _ := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role})
	})
	r.GET("/admin", auth.AuthMiddleware(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func issue(t *testing.T, issuer *helpers.TokenIssuer, role models.Role) string {
	t.Helper()
	token, _, err := issuer.Issue(&models.User{ID: uuid.New(), Email: "x@example.com", Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	issuer := helpers.NewTokenIssuer("secret")
	r := newAuthRouter(issuer)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"wrong secret", "/me", "Bearer " + issue(t, helpers.NewTokenIssuer("other"), models.RoleCOS), http.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + issue(t, issuer, models.RoleCOS), http.StatusOK},
		{"non admin on admin route", "/admin", "Bearer " + issue(t, issuer, models.RoleCOS), http.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + issue(t, issuer, models.RoleAdmin), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRecoveryHidesPanicDetails(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(testLogger()))
	r.GET("/boom", func(c *gin.Context) { panic("secret detail") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret detail")

	var body models.ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "req-1", body.RequestID)
}

func TestErrorHandlerWritesGeneric500(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(testLogger()))
	r.GET("/fail", func(c *gin.Context) { _ = c.Error(assert.AnError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{Capacity: 2, Window: time.Minute, Prefix: "test"}, rdb, testLogger()))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
		last = w
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{Capacity: 1, Window: time.Minute}, rdb, testLogger()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
