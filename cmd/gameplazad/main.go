package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/hohihiho/gameplaza-booking-v2-sub014/config"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/api"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/auth"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/db"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/events"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/notification"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/recurring"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/statuscache"
	"github.com/hohihiho/gameplaza-booking-v2-sub014/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "gameplaza ", log.LstdFlags)

	// Secrets (JWT, DSN, VAPID) can come from a local .env file.
	if err := godotenv.Load(); err == nil {
		logger.Println(".env file loaded")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	// Check for VAPID keys
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Device-status cache backend
	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	var statusCache statuscache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis at %s: %v", cfg.Cache.RedisAddr, err)
		}
		statusCache = statuscache.NewRedis(client, cacheTTL)
		logger.Printf("status cache: redis (%s)", cfg.Cache.RedisAddr)
	default:
		statusCache = statuscache.NewMemory(cacheTTL)
		logger.Println("status cache: in-memory")
	}

	authProvider := auth.NewProvider(cfg.Auth.JWTSecret, cfg.Auth.AccessTTLMin, cfg.Auth.BcryptCost)
	publisher := events.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Queue)
	if publisher.Enabled() {
		logger.Printf("event publishing enabled (queue %q)", cfg.Events.Queue)
	}

	// Notification worker pool
	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	workerPool.Start(ctx)
	logger.Printf("notification worker pool started with %d workers", cfg.WorkerPool.Size)

	// Recurring schedule generation in the background
	runner := recurring.NewRunner(cfg, appStore, publisher)
	go runner.Run(ctx)

	// Initialize router
	handler := api.NewHandler(appStore, statusCache, authProvider, cfg.Venue, workerPool, publisher, runner, cfg.Push.PublicKey)
	router := api.NewRouter(handler, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
