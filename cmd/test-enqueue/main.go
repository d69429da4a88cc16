package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jwebster45206/cabin-escape/internal/config"
	"github.com/jwebster45206/cabin-escape/internal/logger"
	"github.com/jwebster45206/cabin-escape/internal/services/queue"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
	queuePkg "github.com/jwebster45206/cabin-escape/pkg/queue"
)

// Pushes intents onto the Redis queue for a running server or worker.
//
//	go run ./cmd/test-enqueue new left left use
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"new"}
	}

	intents := make([]engine.Intent, 0, len(args))
	for _, arg := range args {
		in, err := engine.ParseIntent(arg)
		if err != nil {
			log.Fatalf("Invalid intent %q: %v", arg, err)
		}
		intents = append(intents, in)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := queue.NewClient(ctx, cfg.RedisURL, logger.Discard())
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer client.Close()

	fmt.Println("Connected to Redis successfully!")

	q := queue.NewIntentQueue(client)
	for _, in := range intents {
		req := queuePkg.NewRequest(in, "test-enqueue")
		if err := q.Enqueue(ctx, req); err != nil {
			log.Fatal("Failed to enqueue request:", err)
		}
		fmt.Printf("✅ Enqueued %s %s%s%s: %s\n", in.Type, in.Direction, in.Item, in.Rule, req.RequestID)
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}

	fmt.Printf("\n📊 Queue depth: %d requests\n", depth)
	fmt.Println("\n💡 A running server or worker drains the queue.")
	fmt.Println("   Run: go run ./cmd/worker")
}
