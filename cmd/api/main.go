package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"worktrack/internal/config"
	"worktrack/internal/events"
	"worktrack/internal/server"
	"worktrack/internal/store"
	"worktrack/internal/store/memory"

	_ "worktrack/docs"
)

// @title Worktrack API
// @version 1.0
// @description Employee attendance, movement and location tracking API

// @host localhost:3000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	log.Println("[API] Starting Worktrack API Server...")

	// Load configuration
	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("[API] Failed to open store: %v", err)
	}
	defer st.Close()

	redisClient := connectRedis(cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	bus := connectBus(cfg)
	defer bus.Close()

	srv := server.NewServer(cfg, st, redisClient, bus)
	srv.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := srv.Bootstrap(ctx); err != nil {
		log.Printf("[API] Failed to add default offices: %v", err)
	}
	cancel()

	// Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	go func() {
		if err := srv.Run(addr); err != nil {
			log.Fatalf("[API] Failed to start server: %v", err)
		}
	}()

	log.Printf("[API] Server ready on %s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("[API] Shutting down...")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
	log.Println("[API] Server stopped")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Println("[API] Using in-memory store, data is lost on restart")
		return memory.New(), nil
	}

	if cfg.AutoMigrate {
		if err := store.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Println("[API] Database migrated")
	}

	db, err := store.Open(store.Options{
		DatabaseURL:   cfg.DatabaseURL,
		Timeout:       cfg.StoreTimeout,
		SlowThreshold: cfg.SlowQueryThreshold,
		MaxOpenConns:  25,
		MaxIdleConns:  5,
	})
	if err != nil {
		return nil, err
	}
	log.Println("[API] Connected to database")
	return db, nil
}

// connectRedis returns nil when redis is not configured or not reachable
func connectRedis(url string) *redis.Client {
	if url == "" {
		log.Println("[API] REDIS_URL not set, location cache and rate limiting disabled")
		return nil
	}

	opts := &redis.Options{Addr: url, DB: 0}
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			log.Printf("[API] Invalid REDIS_URL, redis disabled: %v", err)
			return nil
		}
		opts = parsed
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[API] Failed to connect to Redis, continuing without it: %v", err)
		client.Close()
		return nil
	}
	log.Println("[API] Connected to Redis")
	return client
}

// connectBus falls back to in-process dispatch when NATS is not configured or not reachable
func connectBus(cfg *config.Config) *events.Bus {
	if cfg.NATSURL == "" {
		log.Println("[API] NATS_URL not set, events dispatched in-process")
		return events.NewLocalBus()
	}

	bus, err := events.Connect(cfg.NATSURL, cfg.NATSJetStream)
	if err != nil {
		log.Printf("[API] Failed to connect to NATS, events dispatched in-process: %v", err)
		return events.NewLocalBus()
	}
	log.Println("[API] Connected to NATS")
	return bus
}
