package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AnalysisHandler handles post-session analysis requests.
type AnalysisHandler struct {
	deps Dependencies
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(deps Dependencies) *AnalysisHandler {
	return &AnalysisHandler{deps: deps}
}

// HandleAnalyze handles POST /sessions/{sessionID}/analyze requests. This is
// a synchronous call; it blocks until synthesis answers or the fallback
// scorer takes over.
func (h *AnalysisHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ins, err := h.deps.Analyze(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}
