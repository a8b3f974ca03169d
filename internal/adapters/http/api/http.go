// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/proctor/internal/adapters/repository"
	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/internal/domain/session"
	"github.com/okian/proctor/internal/phase"
	"github.com/okian/proctor/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateSession(ctx context.Context, candidateName, problemID string) (session.Session, error)
	GetSession(ctx context.Context, sessionID string) (session.Session, error)
	TrackEvent(ctx context.Context, sessionID string, t event.Type, md event.Metadata) error
	ListEvents(ctx context.Context, sessionID string) ([]event.Event, error)
	Submit(ctx context.Context, sessionID string) (session.Session, error)
	Complete(ctx context.Context, sessionID string) (session.Session, error)
	Analyze(ctx context.Context, sessionID string) (insights.Insights, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	sessionsHandler *SessionsHandler
	eventsHandler   *EventsHandler
	analysisHandler *AnalysisHandler
	healthHandler   *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		sessionsHandler: NewSessionsHandler(deps),
		eventsHandler:   NewEventsHandler(deps),
		analysisHandler: NewAnalysisHandler(deps),
		healthHandler:   NewHealthHandler(),
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", instrument("healthz", s.healthHandler.HandleHealth))
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", instrument("sessions", s.sessionsHandler.HandleCreateSession))
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", instrument("session", s.sessionsHandler.HandleGetSession))
			r.Post("/events", instrument("events", s.eventsHandler.HandlePostEvent))
			r.Get("/events", instrument("events", s.eventsHandler.HandleListEvents))
			r.Post("/submit", instrument("submit", s.sessionsHandler.HandleSubmit))
			r.Post("/complete", instrument("complete", s.sessionsHandler.HandleComplete))
			r.Post("/analyze", instrument("analyze", s.analysisHandler.HandleAnalyze))
		})
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain sentinel errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", err)
	case errors.Is(err, repository.ErrUnknownType):
		writeError(w, http.StatusBadRequest, "unknown_event_type", err)
	case errors.Is(err, phase.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
