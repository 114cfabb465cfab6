package livekit

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAccessToken(t *testing.T) {
	signed, err := buildAccessToken("api-key", "api-secret", "call-agent",
		&videoGrants{RoomCreate: true},
		&sipGrants{Call: true},
	)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(signed, &accessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		assert.Equal(t, jwt.SigningMethodHS256, token.Method)
		return []byte("api-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(*accessTokenClaims)
	require.True(t, ok)
	assert.Equal(t, "api-key", claims.Issuer)
	assert.Equal(t, "call-agent", claims.Subject)
	require.NotNil(t, claims.Video)
	assert.True(t, claims.Video.RoomCreate)
	require.NotNil(t, claims.SIP)
	assert.True(t, claims.SIP.Call)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(claims.NotBefore.Time))
}

func TestBuildAccessTokenRejectsWrongSecret(t *testing.T) {
	signed, err := buildAccessToken("api-key", "api-secret", "call-agent", nil, nil)
	require.NoError(t, err)

	_, err = jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestURLConversion(t *testing.T) {
	assert.Equal(t, "https://bridge.example.com", toHTTPURL("wss://bridge.example.com"))
	assert.Equal(t, "http://localhost:7880", toHTTPURL("ws://localhost:7880"))
	assert.Equal(t, "wss://bridge.example.com", toWSURL("https://bridge.example.com"))
	assert.Equal(t, "ws://localhost:7880", toWSURL("http://localhost:7880"))
}
