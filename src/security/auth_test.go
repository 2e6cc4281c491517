package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewAuthService("test-secret-value-of-sufficient-length", time.Hour)

	token, err := svc.GenerateToken(7, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, int64(42), claims.ShopID)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewAuthService("secret-one-secret-one-secret-one", time.Hour)
	verifier := NewAuthService("secret-two-secret-two-secret-two", time.Hour)

	token, err := issuer.GenerateToken(7, 42)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewAuthService("test-secret-value-of-sufficient-length", -time.Minute)

	token, err := svc.GenerateToken(7, 42)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewAuthService("test-secret-value-of-sufficient-length", time.Hour)

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_MissingIdentity(t *testing.T) {
	svc := NewAuthService("test-secret-value-of-sufficient-length", time.Hour)

	// A token without a shop binding must be rejected even if the
	// signature verifies.
	token, err := svc.GenerateToken(7, 0)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
