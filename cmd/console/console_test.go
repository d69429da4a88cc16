package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/cabin-escape/internal/handlers"
	"github.com/jwebster45206/cabin-escape/internal/ws"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/jwebster45206/cabin-escape/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*APIClient, *engine.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMockStorage()
	eng := engine.New(store, logger)
	eng.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(eng.View, logger)
	go hub.Run(ctx)
	eng.SubscribeViews(hub.Broadcast)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, "memory", logger))
	mux.Handle("/v1/gamestate", handlers.NewGameStateHandler(eng, logger))
	mux.Handle("/v1/actions", handlers.NewActionHandler(eng, logger))
	mux.Handle("/v1/ws", hub)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewAPIClient(server.Client(), server.URL+"/"), eng
}

func TestAPIClient_RoundTrip(t *testing.T) {
	api, _ := newTestServer(t)
	require.True(t, api.testConnection())

	v, err := api.getView()
	require.NoError(t, err)
	assert.Equal(t, state.SceneHome, v.State.Scene)

	v, err = api.sendIntent(engine.Intent{Type: engine.IntentNew})
	require.NoError(t, err)
	assert.Equal(t, state.SceneDining, v.State.Scene)

	_, err = api.sendIntent(engine.Intent{Type: "fly"})
	assert.ErrorContains(t, err, "unknown intent")

	v, err = api.resetGame()
	require.NoError(t, err)
	assert.Equal(t, state.SceneHome, v.State.Scene)
}

func TestAPIClient_ListenForUpdates(t *testing.T) {
	api, eng := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	updates := make(chan engine.View, 4)
	go func() { _ = api.listenForUpdates(ctx, updates) }()

	first := <-updates
	assert.Equal(t, state.SceneHome, first.State.Scene)

	eng.StartNewGame(ctx)
	select {
	case v := <-updates:
		assert.Equal(t, state.SceneDining, v.State.Scene)
	case <-ctx.Done():
		t.Fatal("timed out waiting for update")
	}
}

func TestWriteRoom(t *testing.T) {
	gs := state.Initial().StartNewGame().AddItem(state.ItemKnife).Equip(state.ItemKnife)
	v := engine.NewView(gs, false)

	out := writeRoom(&v, "", nil, 60)
	assert.Contains(t, out, "DINING ROOM")
	assert.Contains(t, out, "red cushion")
	assert.Contains(t, out, "Cut the red cushion")
	assert.True(t, strings.Contains(out, "Bedroom") && strings.Contains(out, "Basement Door"))

	meta := writeMetadata(&v)
	assert.Contains(t, meta, "Progress: 0/8")
}

func TestOutcomeText(t *testing.T) {
	tests := []struct {
		name     string
		outcome  state.Outcome
		expected string
	}{
		{name: "grant", outcome: state.Outcome{Applied: true, Granted: state.ItemKey}, expected: "You found the"},
		{name: "applied", outcome: state.Outcome{Applied: true}, expected: "It worked."},
		{name: "escape", outcome: state.Outcome{Applied: true, Escape: true}, expected: "boards give way"},
		{name: "nothing", outcome: state.Outcome{}, expected: "Nothing happens."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := engine.View{Outcome: &tt.outcome}
			assert.Contains(t, outcomeText(&v), tt.expected)
		})
	}
}
