package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/cabin-escape/internal/services/events"
	"github.com/jwebster45206/cabin-escape/internal/services/queue"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
	queuePkg "github.com/jwebster45206/cabin-escape/pkg/queue"
)

const (
	workerTimeout = 5 * time.Second
	pollTimeout   = 1 * time.Second
	errorBackoff  = 1 * time.Second
)

// Dispatcher applies one intent. *engine.Engine satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, in engine.Intent) (engine.View, error)
}

// Worker feeds queued intents to the engine one at a time
type Worker struct {
	id          string
	queue       *queue.IntentQueue
	dispatcher  Dispatcher
	broadcaster *events.Broadcaster
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance. broadcaster may be nil.
func New(q *queue.IntentQueue, d Dispatcher, broadcaster *events.Broadcaster, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       q,
		dispatcher:  d,
		broadcaster: broadcaster,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the worker id used in log lines
func (w *Worker) ID() string {
	return w.id
}

// Start processes requests until Stop is called
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id, "queue", queue.Key)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				if w.ctx.Err() != nil {
					continue
				}
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				select {
				case <-w.ctx.Done():
				case <-time.After(errorBackoff):
				}
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout)
	defer cancel()

	req, err := w.queue.BlockingDequeue(ctx, pollTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}

	if req == nil {
		// Queue is empty - this is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"type", req.Intent.Type,
		"source", req.Source,
	)

	return w.processRequest(req)
}

// processRequest dispatches a single request. A malformed intent is reported
// and dropped; it does not stop the worker.
func (w *Worker) processRequest(req *queuePkg.Request) error {
	start := time.Now()

	view, err := w.dispatcher.Dispatch(w.ctx, req.Intent)
	if err != nil {
		if !errors.Is(err, engine.ErrUnknownIntent) {
			return fmt.Errorf("failed to dispatch request %s: %w", req.RequestID, err)
		}

		w.log.Warn("Dropping invalid queued intent",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"error", err,
		)
		if w.broadcaster != nil {
			if pubErr := w.broadcaster.PublishIntentRejected(w.ctx, req.RequestID, err.Error()); pubErr != nil {
				w.log.Error("Failed to publish rejection event", "error", pubErr)
			}
		}
		return nil
	}

	w.log.Info("Request processed",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"scene", view.State.Scene,
		"queued_ms", start.Sub(req.EnqueuedAt).Milliseconds(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
