/*
Package main is the entry point for the RelayChat server.

It is responsible for loading configuration, initializing the global logging
system, connecting PostgreSQL, Redis, and S3 storage, starting the WebSocket
Hub, and gracefully handling operating system interrupt signals (SIGINT,
SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"relaychat/internal/app/account"
	"relaychat/internal/app/chat"
	"relaychat/internal/app/db"
	"relaychat/internal/app/storage"
	"relaychat/internal/app/store"
	"relaychat/internal/configs"
	"relaychat/internal/handler"
	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("redis_enabled", cfg.RedisAddr != "").
		Bool("storage_enabled", cfg.StorageEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect PostgreSQL and apply pending migrations
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database")
	}
	defer pool.Close()

	st := store.NewPostgres(pool)

	// Rate-limit counters: Redis when configured, process memory otherwise
	var rateStore limiter.CounterStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})

		pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancelPing()
			logx.Fatal(err, "Failed to connect to Redis")
		}
		cancelPing()
		defer redisClient.Close()

		rateStore = limiter.NewRedisStore(redisClient)
	} else {
		rateStore = limiter.NewMemoryStore()
	}

	// S3 attachment storage is optional
	var storageService storage.Service
	if cfg.StorageEnabled() {
		storageService, err = storage.NewService(storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize file storage")
		}
	} else {
		logx.Warn("File storage not configured; attachment endpoints disabled")
	}

	accountService := account.NewService(st, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hub := chat.NewHub(st)

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Store:     st,
		Account:   accountService,
		Hub:       hub,
		Config:    cfg,
		RateStore: rateStore,
		Storage:   storageService,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("RelayChat Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
