package jwt

import (
	"errors"

	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// TokenIssuer identifies the issuer of every token this server signs.
	TokenIssuer = "relaychat-server"
)

var (
	// ErrExpired reports a token whose lifetime has elapsed. Callers surface
	// this distinctly so clients know to re-authenticate rather than retry.
	ErrExpired = errors.New("token has expired")

	// ErrInvalid reports a token failing signature, format, or claim checks.
	ErrInvalid = errors.New("token is invalid")
)

// GenerateToken creates and signs a token for the given user id with the
// provided lifetime.
func GenerateToken(userID string, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates the token string, returning ErrExpired for
// elapsed tokens and ErrInvalid for everything else that fails verification.
func ParseToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}
