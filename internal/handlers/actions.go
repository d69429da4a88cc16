package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/cabin-escape/pkg/engine"
)

const maxActionBody = 4 << 10

type ActionHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewActionHandler(e *engine.Engine, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{
		engine: e,
		logger: logger,
	}
}

// ServeHTTP applies one player intent.
// POST /v1/actions {"type":"navigate","direction":"left"}
//
// A valid intent that changes nothing still returns 200 with the unchanged
// view; only malformed intents are rejected.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for actions endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var in engine.Intent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		h.logger.Warn("Invalid action body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	view, err := h.engine.Dispatch(r.Context(), in)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownIntent) {
			h.logger.Warn("Rejected intent", "intent", in, "error", err)
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to dispatch intent", "intent", in, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Debug("Intent applied", "type", in.Type, "scene", view.State.Scene)
	writeJSON(w, h.logger, http.StatusOK, view)
}
