package jwtutil

import (
	"testing"
	"time"

	"transport-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUtil() *JWTUtil {
	return NewJWTUtil(&config.JWTConfig{SigningKey: "secret", ExpirationHours: 1})
}

func TestGenerateAndValidate(t *testing.T) {
	j := newUtil()
	tenantID := uint(7)

	token, err := j.GenerateToken(3, "ops@acme.test", "ADMIN", &tenantID, "acme")
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, uint(7), *claims.TenantID)
	assert.Equal(t, "acme", claims.TenantSlug)
}

func TestValidateExpiredToken(t *testing.T) {
	j := newUtil()
	j.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := j.GenerateToken(1, "a@b.test", "DRIVER", nil, "")
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	other := NewJWTUtil(&config.JWTConfig{SigningKey: "other", ExpirationHours: 1})
	token, err := other.GenerateToken(1, "a@b.test", "ADMIN", nil, "")
	require.NoError(t, err)

	_, err = newUtil().ValidateToken(token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrExpired)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	claims := UserClaims{
		UserID:           1,
		Role:             "SUPERADMIN",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newUtil().ValidateToken(token)
	assert.Error(t, err)
}
