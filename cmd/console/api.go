package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jwebster45206/cabin-escape/internal/ws"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// APIClient talks to the cabin-escape server.
type APIClient struct {
	client  *http.Client
	baseURL string
}

func NewAPIClient(client *http.Client, baseURL string) *APIClient {
	return &APIClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *APIClient) testConnection() bool {
	resp, err := a.client.Get(a.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (a *APIClient) getView() (*engine.View, error) {
	resp, err := a.client.Get(a.baseURL + "/v1/gamestate")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeViewResponse(resp, "get game state")
}

func (a *APIClient) resetGame() (*engine.View, error) {
	req, err := http.NewRequest(http.MethodDelete, a.baseURL+"/v1/gamestate", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeViewResponse(resp, "reset game")
}

func (a *APIClient) sendIntent(in engine.Intent) (*engine.View, error) {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent: %w", err)
	}

	resp, err := a.client.Post(
		a.baseURL+"/v1/actions",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return decodeViewResponse(resp, "send action")
}

func decodeViewResponse(resp *http.Response, op string) (*engine.View, error) {
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to %s: %s", op, errorResp.Error)
	}

	var view engine.View
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &view, nil
}

// listenForUpdates streams state snapshots from /v1/ws until ctx is done or
// the connection drops.
func (a *APIClient) listenForUpdates(ctx context.Context, updates chan<- engine.View) error {
	url := "ws" + strings.TrimPrefix(a.baseURL, "http") + "/v1/ws"

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer conn.CloseNow()

	for {
		var msg ws.Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("error reading websocket: %w", err)
		}
		if msg.Event != ws.EventStateUpdate {
			continue
		}
		select {
		case updates <- msg.View:
		case <-ctx.Done():
			return nil
		}
	}
}
