package livekit

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 10 * time.Minute

// videoGrants mirrors the bridge's video grant claim. Only the grants the
// server API calls need are modeled.
type videoGrants struct {
	RoomCreate bool   `json:"roomCreate,omitempty"`
	RoomAdmin  bool   `json:"roomAdmin,omitempty"`
	RoomJoin   bool   `json:"roomJoin,omitempty"`
	Room       string `json:"room,omitempty"`
	Agent      bool   `json:"agent,omitempty"`
}

type sipGrants struct {
	Admin bool `json:"admin,omitempty"`
	Call  bool `json:"call,omitempty"`
}

type accessTokenClaims struct {
	jwt.RegisteredClaims
	Video *videoGrants `json:"video,omitempty"`
	SIP   *sipGrants   `json:"sip,omitempty"`
}

// buildAccessToken signs a short-lived HS256 bearer token for bridge API
// requests. The API key is the issuer; identity goes in the subject claim.
func buildAccessToken(apiKey, apiSecret, identity string, video *videoGrants, sip *sipGrants) (string, error) {
	now := time.Now()
	claims := accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(defaultTokenTTL)),
		},
		Video: video,
		SIP:   sip,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(apiSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}
