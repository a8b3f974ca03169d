// Package event contains the domain model for candidate telemetry events.
package event

import "time"

// Criticality is a static severity tag attached to an event type, used for
// downstream filtering and alerting.
type Criticality string

// Criticality levels.
const (
	Critical Criticality = "critical"
	High     Criticality = "high"
	Medium   Criticality = "medium"
	Low      Criticality = "low"
)

// Category partitions the event type catalog.
type Category string

// Event categories.
const (
	SessionLifecycle Category = "session_lifecycle"
	CodeEditing      Category = "code_editing"
	QueryOperations  Category = "query_operations"
	ExecutionResults Category = "execution_results"
	DataExploration  Category = "data_exploration"
	AIInteraction    Category = "ai_interaction"
	InterviewPhase   Category = "interview_phase"
	ProblemSolving   Category = "problem_solving"
	AttentionTiming  Category = "attention_timing"
	Workspace        Category = "workspace"
)

// Metadata is an open mapping of event-type-specific detail. The transport
// layer never interprets it.
type Metadata map[string]any

// Event represents one immutable, timestamped, sequenced candidate action.
// Sequence is assigned by the event store at ingestion; the client only
// stamps the capture time.
type Event struct {
	SessionID   string      `json:"session_id"`
	Type        Type        `json:"type"`
	Criticality Criticality `json:"criticality"`
	Metadata    Metadata    `json:"metadata,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Sequence    int64       `json:"sequence"`
}

// New builds an unsequenced event stamped with the given capture time.
// Criticality is derived from the type's static catalog entry.
func New(sessionID string, t Type, md Metadata, ts time.Time) Event {
	return Event{
		SessionID:   sessionID,
		Type:        t,
		Criticality: CriticalityOf(t),
		Metadata:    md,
		Timestamp:   ts,
	}
}
