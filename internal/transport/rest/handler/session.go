package handler

import (
	"adaptivestrategy/internal/model"
	"adaptivestrategy/internal/service"
	"adaptivestrategy/internal/transport/rest/middleware"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// SessionHandler handles questionnaire session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// CreateSessionResponse is returned by POST /v1/sessions
type CreateSessionResponse struct {
	Token   string               `json:"token"`
	Session *service.SessionView `json:"session"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, token, err := h.sessionSvc.Create(r.Context(), req.Profile)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		Token:   token,
		Session: service.NewSessionView(session),
	})
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionSvc.Get(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, service.NewSessionView(session))
}

// Questions handles GET /v1/sessions/{id}/questions?page=N
func (h *SessionHandler) Questions(w http.ResponseWriter, r *http.Request) {
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be an integer")
			return
		}
		page = n
	}

	p, err := h.sessionSvc.QuestionPage(r.Context(), middleware.GetSessionID(r.Context()), page)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Answer handles PUT /v1/sessions/{id}/answers/{questionId}
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req model.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.Answer(r.Context(), middleware.GetSessionID(r.Context()), mux.Vars(r)["questionId"], req.Value)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, service.NewSessionView(session))
}

// Submit handles POST /v1/sessions/{id}/submit
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionSvc.Submit(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err, session)
		return
	}
	writeJSON(w, http.StatusOK, service.NewSessionView(session))
}

// RetryFallback handles POST /v1/sessions/{id}/fallback/retry
func (h *SessionHandler) RetryFallback(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionSvc.RetryFallback(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err, session)
		return
	}
	writeJSON(w, http.StatusOK, service.NewSessionView(session))
}

// Restart handles POST /v1/sessions/{id}/restart
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionSvc.Restart(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, service.NewSessionView(session))
}

// Delete handles DELETE /v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionSvc.Delete(r.Context(), middleware.GetSessionID(r.Context())); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /v1/sessions/{id}/export
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, fileName, err := h.sessionSvc.Export(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(export)
}
