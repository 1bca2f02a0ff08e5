/*
Package handler provides the HTTP handler function for WebSocket connection
upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate
limiting, authenticating the caller before the upgrade, upgrading the HTTP
connection to WebSocket, and initiating the session lifecycle.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"relaychat/internal/app/chat"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection
// requests. Authentication happens before the upgrade: the access token rides
// in the "token" query parameter because browsers cannot set headers on
// WebSocket requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.ConnLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := r.URL.Query().Get("token")
		if token == "" {
			token = jwt.BearerToken(r)
		}
		if token == "" {
			logx.Warn("WebSocket request rejected: Missing access token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		user, customErr := deps.Account.VerifyAccess(r.Context(), token)
		if customErr != nil {
			logx.Warn("WebSocket request rejected: Token verification failed", "code", customErr.Code)
			resp.RespondError(w, r, customErr)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, user.ID)

		go client.WritePump()

		logx.Info("WebSocket connection established and session registered", "user_id", user.ID)

		deps.Hub.Register(client)

		client.ReadPump()
	}
}
