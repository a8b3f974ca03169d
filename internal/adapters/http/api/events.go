package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/proctor/internal/domain/event"
)

// EventsHandler handles event ingestion and log reads.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type trackEventRequest struct {
	Type     string         `json:"type"`
	Metadata event.Metadata `json:"metadata,omitempty"`
}

func (r trackEventRequest) validate() error {
	if strings.TrimSpace(r.Type) == "" {
		return errors.New("missing type")
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandlePostEvent handles POST /sessions/{sessionID}/events requests. The
// event is acknowledged once queued; delivery to the store is asynchronous.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	var req trackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if err := h.deps.TrackEvent(r.Context(), sessionID, event.Type(req.Type), req.Metadata); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

type eventLogResponse struct {
	SessionID string        `json:"session_id"`
	Events    []event.Event `json:"events"`
}

// HandleListEvents handles GET /sessions/{sessionID}/events requests.
func (h *EventsHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	log, err := h.deps.ListEvents(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if log == nil {
		log = []event.Event{}
	}
	writeJSON(w, http.StatusOK, eventLogResponse{SessionID: sessionID, Events: log})
}
