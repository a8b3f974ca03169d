// Package session contains the interview-session domain model.
package session

import (
	"time"

	"github.com/okian/proctor/internal/domain/insights"
)

// Phase is the coarse stage of a session. Transitions are monotonic:
// coding -> interview -> completed, never backward.
type Phase string

// Session phases.
const (
	Coding    Phase = "coding"
	Interview Phase = "interview"
	Completed Phase = "completed"
)

// Status tracks how the session ended, independent of phase.
type Status string

// Session statuses.
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Session is one candidate exercise. SubmittedAt is set exactly once, when
// the phase first leaves coding. Insights is replaced wholesale by the
// analyzer, never partially mutated.
type Session struct {
	SessionID     string             `json:"session_id"`
	CandidateName string             `json:"candidate_name"`
	ProblemID     string             `json:"problem_id"`
	Status        Status             `json:"status"`
	Phase         Phase              `json:"phase"`
	StartedAt     time.Time          `json:"started_at"`
	SubmittedAt   *time.Time         `json:"submitted_at,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	Insights      *insights.Insights `json:"insights,omitempty"`
}

// New creates an active coding-phase session.
func New(sessionID, candidateName, problemID string, now time.Time) Session {
	return Session{
		SessionID:     sessionID,
		CandidateName: candidateName,
		ProblemID:     problemID,
		Status:        StatusActive,
		Phase:         Coding,
		StartedAt:     now,
	}
}
