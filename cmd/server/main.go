package main

import (
	"context"
	"errors"
	"io/fs"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jwebster45206/cabin-escape/internal/config"
	"github.com/jwebster45206/cabin-escape/internal/handlers"
	"github.com/jwebster45206/cabin-escape/internal/logger"
	"github.com/jwebster45206/cabin-escape/internal/middleware"
	"github.com/jwebster45206/cabin-escape/internal/services/events"
	"github.com/jwebster45206/cabin-escape/internal/services/queue"
	"github.com/jwebster45206/cabin-escape/internal/storage"
	"github.com/jwebster45206/cabin-escape/internal/worker"
	"github.com/jwebster45206/cabin-escape/internal/ws"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		stdlog.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Cabin Escape API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"escape_delay", cfg.EscapeDelay)

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	store, err := storage.Open(storageCtx, cfg, log)
	storageCancel()
	if err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	eng := engine.New(store, log, engine.WithEscapeDelay(cfg.EscapeDelay))
	eng.Start(context.Background())

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	hub := ws.NewHub(eng.View, log)
	go hub.Run(hubCtx)
	eng.SubscribeViews(hub.Broadcast)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, cfg.StorageBackend, log))
	mux.Handle("/v1/gamestate", handlers.NewGameStateHandler(eng, log))
	mux.Handle("/v1/actions", handlers.NewActionHandler(eng, log))
	mux.Handle("/v1/items", handlers.NewItemsHandler(log))
	mux.Handle("/v1/ws", hub)

	// Redis Pub/Sub fan-out and the intent queue are only available on the redis backend.
	var intentWorker *worker.Worker
	if rs, ok := store.(*storage.RedisStorage); ok {
		broadcaster := events.NewBroadcaster(rs.GetClient(), log)
		eng.Subscribe(broadcaster.Listener())
		mux.Handle("/v1/events", handlers.NewEventsHandler(broadcaster, log))
		log.Info("Publishing game events", "channel", events.Channel)

		if cfg.IntentQueue {
			intents := queue.NewIntentQueue(queue.NewClientFromRedis(rs.GetClient(), log))
			intentWorker = worker.New(intents, eng, broadcaster, log, cfg.WorkerID)
			go func() {
				if err := intentWorker.Start(); err != nil {
					log.Error("Worker error", "error", err)
				}
			}()
		}
	}

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /v1/ws and /v1/events hold connections open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	hubCancel()
	if intentWorker != nil {
		intentWorker.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	eng.Close()
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
