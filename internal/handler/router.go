/*
Package handler provides the HTTP handlers and routing setup for the RelayChat server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

const (
	// LoginMax and LoginWindow bound login attempts per client IP.
	LoginMax    = 5
	LoginWindow = 5 * time.Minute

	// RegisterMax and RegisterWindow bound registrations per client IP.
	RegisterMax    = 10
	RegisterWindow = time.Hour

	// WsConnRate and WsConnBurst throttle WebSocket connection attempts per IP.
	WsConnRate  = 0.2
	WsConnBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes the per-IP rate limiters, configures CORS, and applies global
// and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	loginLimiter := limiter.NewWindowLimiter(deps.RateStore, "login", LoginMax, LoginWindow)
	registerLimiter := limiter.NewWindowLimiter(deps.RateStore, "register", RegisterMax, RegisterWindow)
	connLimiter := limiter.NewConnLimiter(rate.Limit(WsConnRate), WsConnBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "RelayChat Server",
		}
		resp.RespondSuccess(w, r, "Service healthy", data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.With(registerLimiter.Middleware).Post("/register", HandleRegister(deps))
			auth.With(loginLimiter.Middleware).Post("/login", HandleLogin(deps))
			auth.Post("/refresh-token", HandleRefreshToken(deps))
		})

		api.Route("/chat", func(chatAPI chi.Router) {
			chatAPI.Use(jwt.RequireAuth(deps.Config.JWTSecret))

			chatAPI.Post("/rooms", HandleCreateRoom(deps))
			chatAPI.Get("/rooms", HandleListRooms(deps))
			chatAPI.Get("/rooms/{roomID}", HandleGetRoom(deps))
			chatAPI.Post("/rooms/{roomID}/join", HandleJoinRoom(deps))
			chatAPI.Post("/rooms/{roomID}/leave", HandleLeaveRoom(deps))

			chatAPI.Get("/rooms/{roomID}/messages", HandleListMessages(deps))
			chatAPI.Post("/rooms/{roomID}/messages", HandleSendMessage(deps))
			chatAPI.Put("/rooms/{roomID}/messages/{messageID}/read", HandleMarkMessageRead(deps))
		})

		if deps.Storage != nil {
			api.Route("/files", func(files chi.Router) {
				files.Use(jwt.RequireAuth(deps.Config.JWTSecret))

				files.Post("/presign-upload", HandlePresignUploadURL(deps))
				files.Get("/presign-download", HandlePresignDownloadURL(deps))
				files.Delete("/", HandleDeleteFile(deps))
			})
		}
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connLimiter, deps))

	return r
}
