package handler

import (
	"relaychat/internal/app/account"
	"relaychat/internal/app/chat"
	"relaychat/internal/app/storage"
	"relaychat/internal/app/store"
	"relaychat/internal/configs"
	"relaychat/internal/pkg/limiter"
)

// AppDeps bundles the dependencies shared by the HTTP handlers.
type AppDeps struct {
	Store   store.Store
	Account *account.Service
	Hub     *chat.Hub
	Config  *configs.AppConfig

	// RateStore backs the fixed-window auth limiters. In-memory by default,
	// Redis when configured.
	RateStore limiter.CounterStore

	// Storage is nil when no S3 bucket is configured; the attachment
	// endpoints are not mounted in that case.
	Storage storage.Service
}
