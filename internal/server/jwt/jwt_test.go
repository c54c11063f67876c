package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, expiresIn, err := svc.GenerateAccessToken("device-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "device-1", claims.DeviceID)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, _, err := NewService("secret-a", time.Hour).GenerateAccessToken("device-1")
	require.NoError(t, err)

	_, err = NewService("secret-b", time.Hour).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidate_Expired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, _, err := svc.GenerateAccessToken("device-1")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidate_Garbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	_, err := svc.ValidateAccessToken("not.a.token")
	assert.Error(t, err)
}
