package helpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordProblems(t *testing.T) {
	tests := []struct {
		name     string
		password string
		problems int
	}{
		{"strong", "Sunday-Service-2030", 0},
		{"short", "Ab1!", 1},
		{"no upper", "sunday-service-2030", 1},
		{"no digit", "Sunday-Service-Hall", 1},
		{"no special", "SundayService2030", 1},
		{"empty", "", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, PasswordProblems(tt.password), tt.problems)
			assert.Equal(t, tt.problems == 0, IsPasswordStrong(tt.password))
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc.def", BearerToken("Bearer abc.def"))
	assert.Equal(t, "abc.def", BearerToken("  bearer   abc.def "))
	assert.Empty(t, BearerToken("Basic dXNlcg=="))
	assert.Empty(t, BearerToken("abc.def"))
	assert.Empty(t, BearerToken(""))
}

func TestClampTTL(t *testing.T) {
	assert.Equal(t, MinTokenTTL, ClampTTL(time.Minute))
	assert.Equal(t, MaxTokenTTL, ClampTTL(30*24*time.Hour))
	assert.Equal(t, 24*time.Hour, ClampTTL(24*time.Hour))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	user := &models.User{ID: uuid.New(), Email: "pastor@example.org", Role: models.RoleMinistryHead}

	token, expires, err := issuer.Issue(user, 24*time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expires, time.Minute)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UUID())
	assert.Equal(t, user.Email, claims.Email)
	assert.True(t, claims.HasRole(models.RoleMinistryHead))
	assert.False(t, claims.IsAdmin())
	assert.True(t, claims.IsOwner(user.ID))
	assert.False(t, claims.IsOwner(uuid.Nil))
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	user := &models.User{ID: uuid.New(), Email: "admin@example.org", Role: models.RoleAdmin}

	token, _, err := issuer.Issue(user, time.Hour)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenIssuer("other-secret").Parse(token)
		assert.True(t, models.IsAuth(err))
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenIssuer("test-secret")
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.True(t, models.IsAuth(err))
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := issuer.Parse(token + "x")
		assert.True(t, models.IsAuth(err))
	})

	t.Run("no user", func(t *testing.T) {
		_, _, err := issuer.Issue(&models.User{}, time.Hour)
		assert.Error(t, err)
	})
}
