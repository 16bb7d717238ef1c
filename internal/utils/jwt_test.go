package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndValidateToken(t *testing.T) {
	userID := uuid.New()
	token, err := SignToken(userID, "ops@example.com", true, "secret", "freightlink", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret", "freightlink")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestValidateTokenRejects(t *testing.T) {
	userID := uuid.New()
	good, err := SignToken(userID, "a@example.com", false, "secret", "freightlink", time.Minute)
	require.NoError(t, err)
	expired, err := SignToken(userID, "a@example.com", false, "secret", "freightlink", -time.Minute)
	require.NoError(t, err)
	noUser, err := SignToken(uuid.Nil, "a@example.com", false, "secret", "freightlink", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
		issuer string
	}{
		{"wrong secret", good, "other", "freightlink"},
		{"wrong issuer", good, "secret", "someone-else"},
		{"expired", expired, "secret", "freightlink"},
		{"missing user", noUser, "secret", "freightlink"},
		{"garbage", "not.a.token", "secret", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token, tt.secret, tt.issuer)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
