package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campreg/internal/platform/middleware"
	"campreg/pkg/domerrors"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-key", "campreg-test")

	token, err := svc.GenerateToken("admin-1", "", middleware.RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.ActorID)
	assert.Equal(t, middleware.RoleAdmin, claims.Role)
	assert.Empty(t, claims.ChurchID)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewJWTService("test-key", "campreg-test")

	token, err := svc.GenerateToken("pres-1", "church-1", middleware.RolePresident, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, domerrors.Is(err, domerrors.CodeUnauthorized))
}

func TestValidateTokenWrongKey(t *testing.T) {
	issuer := NewJWTService("key-one", "campreg-test")
	verifier := NewJWTService("key-two", "campreg-test")

	token, err := issuer.GenerateToken("pres-1", "church-1", middleware.RolePresident, time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.True(t, domerrors.Is(err, domerrors.CodeUnauthorized))
}
