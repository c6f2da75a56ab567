package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-reports/internal/core/domain"
)

func TestTokenManager_UsesConfiguredTTL(t *testing.T) {
	ttl := 2 * time.Hour
	tm := NewTokenManager("test-secret", ttl)

	start := time.Now()

	token, err := tm.GenerateToken("dora", domain.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)

	expectedExpiry := start.Add(ttl)
	assert.WithinDuration(t, expectedExpiry, claims.ExpiresAt.Time, 2*time.Second)
	assert.Equal(t, "dora", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).GenerateToken("anna", domain.RoleTechnician)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	claims := &Claims{
		Role: domain.RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "ben",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_GenerateValidation(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, err := tm.GenerateToken("", domain.RoleStaff)
	assert.Error(t, err)

	_, err = tm.GenerateToken("carla", domain.Role("Guest"))
	assert.Error(t, err)
}
