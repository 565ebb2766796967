package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/pkg/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := auth.GenerateToken("user-1", true)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.IsAdmin)

	exp := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 7*24*time.Hour, exp)
}

func TestExpiredToken(t *testing.T) {
	tok, err := auth.Generate("user-1", false, time.Now().Add(-8*24*time.Hour), 7*24*time.Hour)
	require.NoError(t, err)

	_, err = auth.ValidateToken(tok)
	assert.ErrorIs(t, err, auth.ErrExpired)
}

func TestInvalidTokens(t *testing.T) {
	_, err := auth.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalid)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{UserID: "user-1"}).
		SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	_, err = auth.ValidateToken(forged)
	assert.ErrorIs(t, err, auth.ErrInvalid)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)
	assert.True(t, auth.CheckPassword(hash, "admin123"))
	assert.False(t, auth.CheckPassword(hash, "admin124"))
}
