package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"torch-indexer/internal/config"
	"torch-indexer/internal/services"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})

	token, err := svc.GenerateToken("ops")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := services.NewJWTService(&config.Config{JWTSecret: "secret-a"})
	verifier := services.NewJWTService(&config.Config{JWTSecret: "secret-b"})

	token, err := issuer.GenerateToken("ops")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
