package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	InitializeJWT("test-secret")

	token, err := GenerateToken("sess-1", "user-1", "admin", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID())
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateToken_Rejects(t *testing.T) {
	InitializeJWT("test-secret")

	expired, err := GenerateToken("sess-1", "user-1", "user", time.Now().Add(-time.Hour), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = ValidateToken(expired)
	assert.Error(t, err)

	noSession, err := GenerateToken("", "user-1", "user", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = ValidateToken(noSession)
	assert.Error(t, err)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ID: "sess-1"},
	})
	forged, err := other.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = ValidateToken(forged)
	assert.Error(t, err)

	_, err = ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenAt(t *testing.T) {
	InitializeJWT("test-secret")
	issued := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	token, err := GenerateToken("sess-1", "user-1", "user", issued, issued.Add(time.Hour))
	require.NoError(t, err)

	_, err = ValidateTokenAt(token, issued.Add(30*time.Minute))
	assert.NoError(t, err)

	_, err = ValidateTokenAt(token, issued.Add(-time.Minute))
	assert.Error(t, err, "not valid before issue")

	_, err = ValidateTokenAt(token, issued.Add(2*time.Hour))
	assert.Error(t, err, "expired")
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.NoError(t, VerifyPassword(hash, "secret"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong"), ErrPasswordMismatch)
}

func TestSessionData_IsAdmin(t *testing.T) {
	assert.True(t, (&SessionData{Role: "admin"}).IsAdmin())
	assert.False(t, (&SessionData{Role: "user"}).IsAdmin())
}
