package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireready/backend/models"
)

func testAuthService(accessExpiry time.Duration) *AuthService {
	return &AuthService{
		jwtSecret:       []byte("test-secret"),
		accessExpiry:    accessExpiry,
		refreshExpiry:   7 * 24 * time.Hour,
		permanentExpiry: 30 * 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	s := testAuthService(5 * time.Minute)
	user := &models.User{ID: "user-1", Email: "test@example.com", Role: "user"}

	token, err := s.generateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := &CookieClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyAccessTokenRejections(t *testing.T) {
	s := testAuthService(5 * time.Minute)
	user := &models.User{ID: "user-1", Email: "test@example.com", Role: "user"}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := s.generateAccessToken(user)
		require.NoError(t, err)

		other := testAuthService(5 * time.Minute)
		other.jwtSecret = []byte("different-secret")

		_, err = other.VerifyAccessToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := testAuthService(-time.Minute)
		token, err := expired.generateAccessToken(user)
		require.NoError(t, err)

		_, err = expired.VerifyAccessToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := s.VerifyAccessToken(context.Background(), "not-a-jwt")
		assert.Error(t, err)
	})
}

func TestSecureTokenHashing(t *testing.T) {
	s := testAuthService(5 * time.Minute)

	token, err := s.generateSecureToken()
	require.NoError(t, err)
	assert.Len(t, token, 64) // 32 random bytes hex encoded

	other, err := s.generateSecureToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	// The stored form is a stable hash that never equals the raw token.
	hashed := s.hashToken(token)
	assert.Len(t, hashed, 64)
	assert.NotEqual(t, token, hashed)
	assert.Equal(t, hashed, s.hashToken(token))
}

func TestAuthCookies(t *testing.T) {
	s := testAuthService(5 * time.Minute)

	t.Run("set skips empty tokens", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.SetAuthCookies(rec, "access-value", "refresh-value", "")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)

		byName := map[string]string{}
		for _, c := range cookies {
			byName[c.Name] = c.Value
			assert.True(t, c.HttpOnly)
		}
		assert.Equal(t, "access-value", byName["access_token"])
		assert.Equal(t, "refresh-value", byName["refresh_token"])
	})

	t.Run("clear expires every cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ClearAuthCookies(rec)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 3)
		for _, c := range cookies {
			assert.Equal(t, "", c.Value)
			assert.Equal(t, -1, c.MaxAge)
		}
	})

	t.Run("read back from request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "access-value"})

		assert.Equal(t, "access-value", s.GetTokenFromCookie(req, "access_token"))
		assert.Equal(t, "", s.GetTokenFromCookie(req, "refresh_token"))
	})
}
