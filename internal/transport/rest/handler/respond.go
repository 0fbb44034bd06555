package handler

import (
	"adaptivestrategy/internal/model"
	"adaptivestrategy/internal/service"
	"adaptivestrategy/internal/tiebreak"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service and state-machine errors to HTTP responses.
// Recommender failures carry the session snapshot so the renderer can show the error in place.
func writeServiceError(w http.ResponseWriter, err error, session *tiebreak.Session) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, model.ErrInvalidProfile),
		errors.Is(err, tiebreak.ErrIncomplete):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tiebreak.ErrInvalidAnswer):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, tiebreak.ErrBusy),
		errors.Is(err, tiebreak.ErrInvalidTransition),
		errors.Is(err, service.ErrNoResult):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRecommenderUnavailable):
		body := map[string]interface{}{"error": err.Error()}
		if session != nil {
			body["session"] = service.NewSessionView(session)
		}
		writeJSON(w, http.StatusBadGateway, body)
	default:
		log.Printf("[API] ERROR: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
