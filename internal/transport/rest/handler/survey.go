package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"leadfunnel/internal/model"
	"leadfunnel/internal/service"
)

// SurveyHandler handles the public survey flow endpoints
type SurveyHandler struct {
	surveySvc *service.SurveyService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveySvc: surveySvc}
}

// Catalog handles GET /v1/flow/catalog
func (h *SurveyHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.surveySvc.Catalog())
}

// Start handles POST /v1/flow/sessions
func (h *SurveyHandler) Start(w http.ResponseWriter, r *http.Request) {
	snap, err := h.surveySvc.Start(r.Context())
	if err != nil {
		log.Printf("[Flow] start failed: %v", err)
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// Get handles GET /v1/flow/sessions/{id}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := h.surveySvc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Answer handles POST /v1/flow/sessions/{id}/answers
func (h *SurveyHandler) Answer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.surveySvc.Answer(r.Context(), id, &req)
	h.respond(w, snap, err)
}

// Back handles POST /v1/flow/sessions/{id}/back
func (h *SurveyHandler) Back(w http.ResponseWriter, r *http.Request) {
	snap, err := h.surveySvc.Back(r.Context(), mux.Vars(r)["id"])
	h.respond(w, snap, err)
}

// Contact handles POST /v1/flow/sessions/{id}/contact
func (h *SurveyHandler) Contact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req model.SubmitContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.surveySvc.SubmitContact(r.Context(), id, &req)
	h.respond(w, snap, err)
}

// Retry handles POST /v1/flow/sessions/{id}/retry
func (h *SurveyHandler) Retry(w http.ResponseWriter, r *http.Request) {
	snap, err := h.surveySvc.Retry(r.Context(), mux.Vars(r)["id"])
	h.respond(w, snap, err)
}

// Close handles DELETE /v1/flow/sessions/{id}
func (h *SurveyHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.surveySvc.Close(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SurveyHandler) respond(w http.ResponseWriter, snap *model.FlowSnapshot, err error) {
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			log.Printf("[Flow] request failed: %v", err)
		}
		writeServiceError(w, err, snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
