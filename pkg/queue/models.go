package queue

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
)

// ErrMissingRequestID is returned for queue entries without a request id.
var ErrMissingRequestID = errors.New("queued request has no request_id")

// Request is a player intent waiting in the queue
type Request struct {
	RequestID string        `json:"request_id"`
	Intent    engine.Intent `json:"intent"`
	// Source names the producer, e.g. "test-enqueue" or a kiosk id
	Source     string    `json:"source,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewRequest wraps in with a fresh request id.
func NewRequest(in engine.Intent, source string) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		Intent:     in,
		Source:     source,
		EnqueuedAt: time.Now().UTC(),
	}
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		return nil, ErrMissingRequestID
	}
	return &req, nil
}
