package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ActorID     int64
	DisplayName string
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to shop staff.
// The subject mirrors ActorID so third-party verifiers can read it.
type AccessTokenClaims struct {
	ActorID     int64  `json:"actor_id"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
