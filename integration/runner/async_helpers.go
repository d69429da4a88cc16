package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jwebster45206/cabin-escape/pkg/engine"
	"github.com/jwebster45206/cabin-escape/pkg/state"
)

const (
	// PollInterval is how often to check gamestate for updates
	PollInterval = 100 * time.Millisecond
	// EscapeTimeout is max time to wait for a pending escape to land
	EscapeTimeout = 5 * time.Second
)

// ActionError is returned when the action endpoint answers with a non-200 status.
type ActionError struct {
	Status int
	Body   string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("actions endpoint returned %d: %s", e.Status, e.Body)
}

// PostAction sends an intent to POST /v1/actions and returns the resulting view.
// body is usually an engine.Intent; raw JSON is sent verbatim.
func PostAction(ctx context.Context, client *http.Client, baseURL string, body any) (*engine.View, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent: %w", err)
	}

	url := fmt.Sprintf("%s/v1/actions", baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create action request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doView(client, req)
}

// GetView retrieves the current view from GET /v1/gamestate.
func GetView(ctx context.Context, client *http.Client, baseURL string) (*engine.View, error) {
	url := fmt.Sprintf("%s/v1/gamestate", baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gamestate request: %w", err)
	}
	return doView(client, req)
}

// ResetGame clears the save slot via DELETE /v1/gamestate.
func ResetGame(ctx context.Context, client *http.Client, baseURL string) (*engine.View, error) {
	url := fmt.Sprintf("%s/v1/gamestate", baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create reset request: %w", err)
	}
	return doView(client, req)
}

func doView(client *http.Client, req *http.Request) (*engine.View, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ActionError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	var v engine.View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode view: %w", err)
	}
	return &v, nil
}

// PollForScene polls the gamestate until it reaches want or the timeout expires.
func PollForScene(ctx context.Context, client *http.Client, baseURL string, want state.Scene, timeout time.Duration) (*engine.View, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	var last state.Scene
	for {
		v, err := GetView(ctx, client, baseURL)
		if err == nil {
			if v.State.Scene == want {
				return v, nil
			}
			last = v.State.Scene
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timeout waiting for scene %s (last seen %s)", want, last)
		case <-ticker.C:
		}
	}
}
