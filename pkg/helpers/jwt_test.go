package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT() *JWTManager {
	return NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWT()
	token, exp, err := m.GenerateAccessToken("user-1", "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	m := newTestJWT()
	refresh, _, err := m.GenerateRefreshToken("user-1", "sess-1")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(refresh)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewJWTManager("a", "r", -time.Minute, -time.Minute)
	token, _, err := m.GenerateAccessToken("user-1", "sess-1")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(token)
	assert.Error(t, err)
}
