package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	token, err := m.GenerateToken("u-1", "ada@example.com", "user")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
	require.Equal(t, "ada@example.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, "u-1", claims.Subject)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	token, err := m.GenerateRefreshToken("u-1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
	// A refresh token carries identity only
	require.Empty(t, claims.Email)
	require.Empty(t, claims.Role)
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	accessToken, err := m.GenerateToken("u-1", "ada@example.com", "user")
	require.NoError(t, err)
	refreshToken, err := m.GenerateRefreshToken("u-1")
	require.NoError(t, err)

	access, err := m.ValidateToken(accessToken)
	require.NoError(t, err)
	refresh, err := m.ValidateToken(refreshToken)
	require.NoError(t, err)

	require.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	issuer := NewJWTManager("issuer-secret", time.Hour, 24*time.Hour)
	verifier := NewJWTManager("other-secret", time.Hour, 24*time.Hour)

	token, err := issuer.GenerateToken("u-1", "ada@example.com", "user")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	_, err := m.ValidateToken("not.a.token")
	require.Error(t, err)
}

func TestGetTokenDuration(t *testing.T) {
	m := NewJWTManager("test-secret", 2*time.Hour, 24*time.Hour)
	require.Equal(t, 2*time.Hour, m.GetTokenDuration())
}
