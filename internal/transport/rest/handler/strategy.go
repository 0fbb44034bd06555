package handler

import (
	"adaptivestrategy/internal/model"
	"net/http"
)

// StrategyHandler serves the static strategy guide
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

// List handles GET /v1/strategies
func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": model.StrategyGuides(),
	})
}
