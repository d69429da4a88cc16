package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/redis/go-redis/v9"
)

// Channel is the Redis Pub/Sub channel every game event goes to.
const Channel = "cabin-escape:events"

const publishTimeout = 2 * time.Second

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeGameStateUpdated EventType = "game.state_updated"
	EventTypeGameEscaped      EventType = "game.escaped"
	EventTypeGameReset        EventType = "game.reset"
	EventTypeIntentRejected   EventType = "intent.rejected"
)

// Event represents a generic event structure
type Event struct {
	Type EventType      `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// EventFor classifies a snapshot.
func EventFor(gs state.GameState) Event {
	t := EventTypeGameStateUpdated
	switch {
	case gs.Scene == state.SceneEscaped:
		t = EventTypeGameEscaped
	case gs.Equal(state.Initial()):
		t = EventTypeGameReset
	}
	return Event{
		Type: t,
		Data: map[string]any{
			"scene":     gs.Scene,
			"inventory": gs.Inventory,
			"equipped":  gs.Equipped,
			"flags":     gs.Flags,
		},
	}
}

// PublishGameState publishes the event for gs.
func (b *Broadcaster) PublishGameState(ctx context.Context, gs state.GameState) error {
	return b.publish(ctx, EventFor(gs))
}

// PublishIntentRejected reports a queued intent the engine could not decode.
func (b *Broadcaster) PublishIntentRejected(ctx context.Context, requestID, reason string) error {
	return b.publish(ctx, Event{
		Type: EventTypeIntentRejected,
		Data: map[string]any{
			"request_id": requestID,
			"reason":     reason,
		},
	})
}

// Listener adapts the broadcaster to an engine subscriber. Publish errors are
// logged; a missing subscriber is not an error.
func (b *Broadcaster) Listener() func(state.GameState) {
	return func(gs state.GameState) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		_ = b.PublishGameState(ctx, gs)
	}
}

// Subscribe opens a subscription to Channel. The caller must close it.
func (b *Broadcaster) Subscribe(ctx context.Context) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel)
}

func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, Channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", Channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", Channel,
		"event_type", event.Type,
	)
	return nil
}
