package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

func newAuthService() *AuthService {
	return NewAuthService(AuthConfig{Secret: "test-secret", Issuer: "miqaat-rms", Expiry: time.Hour}, nil)
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newAuthService()

	token, expiresAt, err := svc.IssueToken("user-1", "ali", models.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ali", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "miqaat-rms", claims.Issuer)
}

func TestAuthServiceRejectsForeignSecret(t *testing.T) {
	other := NewAuthService(AuthConfig{Secret: "other", Issuer: "miqaat-rms"}, nil)
	token, _, err := other.IssueToken("user-1", "ali", models.RoleAdmin)
	require.NoError(t, err)

	_, err = newAuthService().ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := newAuthService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.IssueToken("user-1", "ali", models.RoleOperator)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsOtherIssuerAndAlgorithm(t *testing.T) {
	svc := newAuthService()

	foreign := NewAuthService(AuthConfig{Secret: "test-secret", Issuer: "someone-else"}, nil)
	token, _, err := foreign.IssueToken("user-1", "ali", models.RoleOperator)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	claims := &models.JWTClaims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "miqaat-rms", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRequiresUser(t *testing.T) {
	svc := newAuthService()
	token, _, err := svc.IssueToken("", "ghost", models.RoleOperator)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has no user", appErrors.FromError(err).Message)
}
