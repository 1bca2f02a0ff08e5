package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	tokenString, err := GenerateToken("user-1", testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := ParseToken(tokenString, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, TokenIssuer, claims.Issuer)
}

func TestParseTokenExpired(t *testing.T) {
	tokenString, err := GenerateToken("user-1", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(tokenString, testSecret)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestParseTokenWrongSecret(t *testing.T) {
	tokenString, err := GenerateToken("user-1", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tokenString, "another-secret")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseTokenEmptySubject(t *testing.T) {
	tokenString, err := GenerateToken("", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tokenString, testSecret)
	assert.ErrorIs(t, err, ErrInvalid)
}
