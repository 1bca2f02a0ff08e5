package jwt

import "github.com/golang-jwt/jwt"

// Claims defines the JWT claim set for relaychat tokens.
// Beyond the standard fields, a token carries only the user id; both access
// and refresh tokens are stateless and hold no other identity data.
type Claims struct {
	// StandardClaims embeds the standard JWT fields (Exp, Iat, Iss) used for
	// validity checks.
	jwt.StandardClaims

	// UserID is the unique identifier of the authenticated user.
	UserID string `json:"userId"`
}
