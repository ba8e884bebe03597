package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"leadfunnel/internal/flow"
	"leadfunnel/internal/model"
	"leadfunnel/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

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

// errorResponse carries the session snapshot next to the error so the client
// can keep rendering the flow.
type errorResponse struct {
	Error   string              `json:"error"`
	Field   string              `json:"field,omitempty"`
	Session *model.FlowSnapshot `json:"session,omitempty"`
}

func statusFor(err error) int {
	var verr *flow.ValidationError
	var serr *flow.SubmissionError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &serr):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSessionBusy),
		errors.Is(err, service.ErrStaleQuestion),
		errors.Is(err, flow.ErrFlowComplete),
		errors.Is(err, flow.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error, snap *model.FlowSnapshot) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), Session: snap}
	var verr *flow.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
		resp.Error = verr.Message
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
		resp.Session = nil
	}
	writeJSON(w, status, resp)
}
