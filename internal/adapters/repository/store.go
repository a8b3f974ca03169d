// Package repository defines the event and session store contracts and
// their in-memory and SQLite implementations.
//
// The event store is the single source of truth for sequence assignment:
// Append allocates the next per-session sequence number atomically and must
// be durable before it acknowledges. Clients never assign sequences.
package repository

import (
	"context"
	"time"

	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/internal/domain/session"
)

// EventStore provides append-only access to a session's event log.
type EventStore interface {
	// Append persists one event and returns its assigned sequence number.
	// Sequences are strictly increasing per session and never reused.
	Append(ctx context.Context, sessionID string, t event.Type, md event.Metadata, ts time.Time) (int64, error)

	// ListEvents returns a session's full event log in sequence order.
	ListEvents(ctx context.Context, sessionID string) ([]event.Event, error)
}

// SessionStore provides read/write access to session records.
type SessionStore interface {
	// CreateSession persists a new session. Fails with ErrAlreadyExists if
	// the id is taken.
	CreateSession(ctx context.Context, s session.Session) error

	// GetSession returns a session by id or ErrNotFound.
	GetSession(ctx context.Context, sessionID string) (session.Session, error)

	// UpdatePhase persists a phase transition together with its status and
	// set-once timestamps.
	UpdatePhase(ctx context.Context, s session.Session) error

	// SetInsights replaces a session's insights record wholesale.
	SetInsights(ctx context.Context, sessionID string, ins insights.Insights) error
}

// Store bundles both contracts for implementations that back the whole core.
type Store interface {
	EventStore
	SessionStore
}
