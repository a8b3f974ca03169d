package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/internal/domain/session"
)

// MemoryStore implements Store with in-process maps. It is the default
// backing for tests and single-process runs without a SQLite path.
type MemoryStore struct {
	mu       sync.RWMutex
	events   map[string][]event.Event
	seqs     map[string]int64
	sessions map[string]session.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string][]event.Event),
		seqs:     make(map[string]int64),
		sessions: make(map[string]session.Session),
	}
}

// Append persists one event, assigning the next per-session sequence.
func (m *MemoryStore) Append(_ context.Context, sessionID string, t event.Type, md event.Metadata, ts time.Time) (int64, error) {
	if !event.Known(t) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seqs[sessionID]++
	seq := m.seqs[sessionID]
	m.events[sessionID] = append(m.events[sessionID], event.Event{
		SessionID:   sessionID,
		Type:        t,
		Criticality: event.CriticalityOf(t),
		Metadata:    md,
		Timestamp:   ts,
		Sequence:    seq,
	})
	return seq, nil
}

// ListEvents returns a copy of the session's log in sequence order.
func (m *MemoryStore) ListEvents(_ context.Context, sessionID string) ([]event.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.events[sessionID]
	out := make([]event.Event, len(log))
	copy(out, log)
	return out, nil
}

// CreateSession persists a new session record.
func (m *MemoryStore) CreateSession(_ context.Context, s session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.SessionID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, s.SessionID)
	}
	m.sessions[s.SessionID] = s
	return nil
}

// GetSession returns a session by id.
func (m *MemoryStore) GetSession(_ context.Context, sessionID string) (session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return session.Session{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return s, nil
}

// UpdatePhase persists phase, status and the set-once timestamps.
func (m *MemoryStore) UpdatePhase(_ context.Context, s session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.SessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, s.SessionID)
	}
	cur.Phase = s.Phase
	cur.Status = s.Status
	if cur.SubmittedAt == nil {
		cur.SubmittedAt = s.SubmittedAt
	}
	if cur.CompletedAt == nil {
		cur.CompletedAt = s.CompletedAt
	}
	m.sessions[s.SessionID] = cur
	return nil
}

// SetInsights replaces the session's insights wholesale.
func (m *MemoryStore) SetInsights(_ context.Context, sessionID string, ins insights.Insights) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	cur.Insights = &ins
	m.sessions[sessionID] = cur
	return nil
}
