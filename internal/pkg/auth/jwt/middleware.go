package jwt

import (
	"context"
	"net/http"
	"strings"

	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

// Context key type for the authenticated claims, preventing collisions with
// other packages.
type contextKey string

const (
	// ContextClaimsKey is the key under which the parsed Claims live in the
	// request context.
	ContextClaimsKey contextKey = "auth_claims"
)

// RequireAuth returns middleware that rejects requests lacking a valid bearer
// access token with 401, and injects the Claims into the context otherwise.
func RequireAuth(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := BearerToken(r)
			if tokenString == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			claims, err := ParseToken(tokenString, secretKey)
			if err != nil {
				logx.Warn("Rejected request with unusable bearer token", "error", err)

				if err == ErrExpired {
					resp.RespondError(w, r, errs.NewError(errs.ErrTokenExpired))
					return
				}
				resp.RespondError(w, r, errs.NewError(errs.ErrTokenInvalid))
				return
			}

			ctx := context.WithValue(r.Context(), ContextClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header, returning ""
// when the header is missing or malformed.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// GetClaimsFromContext extracts the authenticated Claims from the request
// context. A nil return means the request never passed RequireAuth.
func GetClaimsFromContext(r *http.Request) *Claims {
	claims, ok := r.Context().Value(ContextClaimsKey).(*Claims)

	if !ok {
		return nil
	}

	return claims
}
