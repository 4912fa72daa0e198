package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-secret-key-for-testing-purposes"
	testRefreshSecret = "test-refresh-secret-key-for-testing-purposes"
)

func testIdentity() Identity {
	return Identity{
		AccountID:   uuid.New(),
		Email:       "admin@estatehub.lk",
		DisplayName: "Admin",
		Role:        "admin",
		Status:      "approved",
	}
}

func TestNewService(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, time.Hour, service.AccessTokenExpiry())
	assert.Equal(t, 24*time.Hour, service.RefreshTokenExpiry())
}

func TestGenerateAccessToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	id := testIdentity()

	token, err := service.GenerateAccessToken(id)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.AccountID, claims.AccountID)
	assert.Equal(t, id.Email, claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "approved", claims.Status)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, id.AccountID.String(), claims.Subject)
}

func TestGenerateRefreshToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	accountID := uuid.New()

	first, err := service.GenerateRefreshToken(accountID, "owner@example.com")
	require.NoError(t, err)
	second, err := service.GenerateRefreshToken(accountID, "owner@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "refresh tokens carry a unique id")

	claims, err := service.ValidateRefreshToken(first)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestValidateToken_Failures(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)

	t.Run("Refresh token rejected as access token", func(t *testing.T) {
		token, err := service.GenerateRefreshToken(uuid.New(), "x@example.com")
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewService("another-secret", testRefreshSecret, time.Hour, time.Hour)
		token, err := other.GenerateAccessToken(testIdentity())
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired token", func(t *testing.T) {
		expired := NewService(testAccessSecret, testRefreshSecret, -time.Minute, time.Hour)
		token, err := expired.GenerateAccessToken(testIdentity())
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.Error(t, err)
		assert.True(t, service.IsTokenExpired(token))
	})

	t.Run("Unexpected signing method", func(t *testing.T) {
		claims := Claims{TokenType: AccessToken, RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("Garbage input", func(t *testing.T) {
		_, err := service.ValidateAccessToken("not-a-token")
		assert.Error(t, err)
		assert.True(t, service.IsTokenExpired("not-a-token"))
	})
}
