package utils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)

	access, err := m.SignAccess(42)
	require.NoError(t, err)

	claims, err := m.Parse(access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.NotEmpty(t, claims.Id)

	refresh, expiresAt, err := m.SignRefresh(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	_, err = m.Parse(refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrTokenType)
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	token, err := m.SignAccess(1)
	require.NoError(t, err)

	_, err = m.Parse(token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, err := NewTokenManager("other", time.Minute, time.Hour).SignAccess(1)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Minute, time.Hour).Parse(token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	claims := TokenClaims{UserID: 1, Type: TokenTypeAccess, StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Minute, time.Hour).Parse(token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	for _, header := range []string{"", "abc", "Basic abc", "Bearer a b"} {
		_, ok := BearerToken(header)
		assert.False(t, ok, header)
	}
}
