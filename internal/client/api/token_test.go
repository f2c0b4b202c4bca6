package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenExpiry_ExpiresInWins(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	got := TokenExpiry("not-a-jwt", 3600, now)
	assert.Equal(t, now.Add(time.Hour), got)
}

func TestTokenExpiry_FallsBackToExpClaim(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)

	got := TokenExpiry(signed, 0, time.Now())
	assert.Equal(t, exp.Unix(), got.Unix())
}

func TestTokenExpiry_NoSourceYieldsZero(t *testing.T) {
	assert.True(t, TokenExpiry("opaque-token", 0, time.Now()).IsZero())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	assert.True(t, TokenExpiry(signed, 0, time.Now()).IsZero())
}
