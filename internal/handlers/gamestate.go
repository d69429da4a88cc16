package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/cabin-escape/pkg/engine"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type GameStateHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewGameStateHandler(e *engine.Engine, logger *slog.Logger) *GameStateHandler {
	return &GameStateHandler{
		engine: e,
		logger: logger,
	}
}

// ServeHTTP handles HTTP requests for the single game
// Routes:
// GET /v1/gamestate    - Current view
// DELETE /v1/gamestate - Reset the game and clear the save slot
func (h *GameStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, h.engine.View())

	case http.MethodDelete:
		h.engine.Reset(r.Context())
		h.logger.Info("Game reset via API")
		writeJSON(w, h.logger, http.StatusOK, h.engine.View())

	default:
		h.logger.Warn("Method not allowed for game state endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}
