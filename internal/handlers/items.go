package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/cabin-escape/pkg/state"
)

type ItemsResponse struct {
	Items []state.ItemInfo `json:"items"`
}

type ItemsHandler struct {
	logger *slog.Logger
}

func NewItemsHandler(logger *slog.Logger) *ItemsHandler {
	return &ItemsHandler{logger: logger}
}

// ServeHTTP lists the item catalog.
// GET /v1/items
func (h *ItemsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ItemsResponse{Items: state.Catalog()})
}
