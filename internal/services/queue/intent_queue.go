package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/queue"
	"github.com/redis/go-redis/v9"
)

// Key is the Redis list holding queued intents, oldest first.
const Key = "cabin-escape:intents"

// IntentQueue is a FIFO of player intents shared between processes.
type IntentQueue struct {
	client *Client
}

func NewIntentQueue(client *Client) *IntentQueue {
	return &IntentQueue{
		client: client,
	}
}

// Enqueue adds a request to the end of the queue
func (q *IntentQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	if err := q.client.rdb.RPush(ctx, Key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// Dequeue removes and returns the next request.
// Returns nil if queue is empty
func (q *IntentQueue) Dequeue(ctx context.Context) (*queue.Request, error) {
	result, err := q.client.rdb.LPop(ctx, Key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}
	return parse(result)
}

// BlockingDequeue waits up to timeout for a request.
// Returns nil when the timeout passes with nothing queued
func (q *IntentQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, Key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}
	return parse(result[1])
}

// Depth returns the number of queued requests
func (q *IntentQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, Key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}

// Clear drops every queued request
func (q *IntentQueue) Clear(ctx context.Context) error {
	if err := q.client.rdb.Del(ctx, Key).Err(); err != nil {
		return fmt.Errorf("failed to clear intent queue: %w", err)
	}
	return nil
}

func parse(raw string) (*queue.Request, error) {
	req, err := queue.FromJSON([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}
