/*
Package handler provides HTTP handler functions for account registration,
login, and token refresh.
*/
package handler

import (
	"net/http"

	"relaychat/internal/pkg/req"
	"relaychat/internal/pkg/resp"
)

type RegisterInput struct {
	Username string `json:"user_name"`
	Password string `json:"password"`
}

// HandleRegister processes the request to create a new user account.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, customErr := deps.Account.Register(r.Context(), input.Username, input.Password)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondCreated(w, r, "User registered successfully", map[string]any{
			"user": user,
		})
	}
}

type LoginInput struct {
	Username string `json:"user_name"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues an access/refresh token pair.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, pair, customErr := deps.Account.Authenticate(r.Context(), input.Username, input.Password)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, "Login successful", map[string]any{
			"token":        pair.AccessToken,
			"refreshToken": pair.RefreshToken,
			"user":         user,
		})
	}
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefreshToken validates a refresh token and rotates the token pair.
func HandleRefreshToken(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RefreshInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		pair, customErr := deps.Account.Refresh(r.Context(), input.RefreshToken)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, "Token refreshed", pair)
	}
}
