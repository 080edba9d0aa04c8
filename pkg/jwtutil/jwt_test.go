package jwtutil

import (
	"testing"

	"callhub-service/pkg/config"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTUtil(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 168})

	token, err := j.Generate(42, 7, "a@acme.com", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := j.Validate(token)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, uint(7), claims.TenantID)
	require.Equal(t, "a@acme.com", claims.Email)
	require.Equal(t, "admin", claims.Role)
}

func TestValidate_WrongKey(t *testing.T) {
	issuer := NewJWTUtil(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	verifier := NewJWTUtil(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})

	token, err := issuer.Generate(1, 1, "", "")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_Expired(t *testing.T) {
	// Negative expiry mints a token that is already expired.
	j := NewJWTUtil(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: -1})

	token, err := j.Generate(1, 1, "", "")
	require.NoError(t, err)

	_, err = j.Validate(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_Garbage(t *testing.T) {
	j := NewJWTUtil(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 1})
	_, err := j.Validate("not-a-token")
	require.Error(t, err)
}
