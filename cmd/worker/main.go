package main

import (
	"context"
	"errors"
	"io/fs"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jwebster45206/cabin-escape/internal/config"
	"github.com/jwebster45206/cabin-escape/internal/logger"
	"github.com/jwebster45206/cabin-escape/internal/services/events"
	"github.com/jwebster45206/cabin-escape/internal/services/queue"
	"github.com/jwebster45206/cabin-escape/internal/storage"
	"github.com/jwebster45206/cabin-escape/internal/worker"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
)

// The worker hosts the game without an HTTP surface: intents arrive on the
// Redis queue and state changes leave on the Pub/Sub channel. Run it instead
// of cmd/server, not next to it, since both own the save slot.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		stdlog.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Cabin Escape Worker",
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"redis_url", cfg.RedisURL)

	startCtx, startCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer startCancel()

	// Initialize queue service
	queueClient, err := queue.NewClient(startCtx, cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()
	intents := queue.NewIntentQueue(queueClient)
	log.Info("Queue service initialized successfully")

	// Initialize storage service
	store, err := storage.Open(startCtx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}()
	log.Info("Storage service initialized successfully")

	eng := engine.New(store, log, engine.WithEscapeDelay(cfg.EscapeDelay))
	eng.Start(context.Background())
	defer eng.Close()

	broadcaster := events.NewBroadcaster(queueClient.GetRedisClient(), log)
	eng.Subscribe(broadcaster.Listener())

	w := worker.New(intents, eng, broadcaster, log, cfg.WorkerID)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
		}
	}()

	log.Info("Worker started, waiting for intents...", "worker_id", w.ID(), "queue", queue.Key)

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Give worker time to finish current request
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn("Worker did not stop in time")
	}

	log.Info("Worker exited")
}
