package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ralph2001/marketplace/internal/utils"
)

func TestJWT_RoundTrip(t *testing.T) {
	id := utils.NewShortID()
	token, err := GenerateJWT("test-secret", id, "seller@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "seller@example.com", claims.Email)
}

func TestJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("test-secret", utils.NewShortID(), "a@b.c", time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT("other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("test-secret", utils.NewShortID(), "a@b.c", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT("test-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
