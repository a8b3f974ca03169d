package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/internal/domain/session"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite. Sequence assignment happens
// inside a transaction so concurrent appends for one session can never
// share or skip a number.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite-backed store at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency between the drain loops and readers.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		candidate_name TEXT NOT NULL,
		problem_id TEXT NOT NULL,
		status TEXT NOT NULL,
		phase TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		submitted_at INTEGER,
		completed_at INTEGER,
		insights_json TEXT
	);

	CREATE TABLE IF NOT EXISTS events (
		session_id TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		criticality TEXT NOT NULL,
		metadata_json TEXT,
		captured_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, sequence)
	);
	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, sequence);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append persists one event and returns its assigned sequence number.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, t event.Type, md event.Metadata, ts time.Time) (int64, error) {
	if !event.Known(t) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	var mdJSON []byte
	if md != nil {
		var err error
		mdJSON, err = json.Marshal(md)
		if err != nil {
			return 0, fmt.Errorf("marshal metadata: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var seq int64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM events WHERE session_id = ?`, sessionID)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (session_id, sequence, event_type, criticality, metadata_json, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, seq, string(t), string(event.CriticalityOf(t)), nullableText(mdJSON), ts.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}
	return seq, nil
}

// ListEvents returns a session's full event log in sequence order.
func (s *SQLiteStore) ListEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sequence, event_type, criticality, metadata_json, captured_at
		 FROM events WHERE session_id = ? ORDER BY sequence`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		var (
			e        event.Event
			typ, cr  string
			mdJSON   sql.NullString
			captured int64
		)
		if err := rows.Scan(&e.Sequence, &typ, &cr, &mdJSON, &captured); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		e.SessionID = sessionID
		e.Type = event.Type(typ)
		e.Criticality = event.Criticality(cr)
		e.Timestamp = time.UnixMilli(captured)
		if mdJSON.Valid && mdJSON.String != "" {
			if err := json.Unmarshal([]byte(mdJSON.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateSession persists a new session record.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess session.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, candidate_name, problem_id, status, phase, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.SessionID, sess.CandidateName, sess.ProblemID,
		string(sess.Status), string(sess.Phase), sess.StartedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, sess.SessionID)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns a session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, candidate_name, problem_id, status, phase,
		        started_at, submitted_at, completed_at, insights_json
		 FROM sessions WHERE session_id = ?`, sessionID)

	var (
		sess                 session.Session
		status, phase        string
		started              int64
		submitted, completed sql.NullInt64
		insJSON              sql.NullString
	)
	err := row.Scan(&sess.SessionID, &sess.CandidateName, &sess.ProblemID,
		&status, &phase, &started, &submitted, &completed, &insJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("scan session row: %w", err)
	}

	sess.Status = session.Status(status)
	sess.Phase = session.Phase(phase)
	sess.StartedAt = time.UnixMilli(started)
	if submitted.Valid {
		t := time.UnixMilli(submitted.Int64)
		sess.SubmittedAt = &t
	}
	if completed.Valid {
		t := time.UnixMilli(completed.Int64)
		sess.CompletedAt = &t
	}
	if insJSON.Valid && insJSON.String != "" {
		var ins insights.Insights
		if err := json.Unmarshal([]byte(insJSON.String), &ins); err != nil {
			return session.Session{}, fmt.Errorf("unmarshal insights: %w", err)
		}
		sess.Insights = &ins
	}
	return sess, nil
}

// UpdatePhase persists phase, status and the set-once timestamps. The
// COALESCE keeps submitted_at immutable once set.
func (s *SQLiteStore) UpdatePhase(ctx context.Context, sess session.Session) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET phase = ?, status = ?,
		        submitted_at = COALESCE(submitted_at, ?),
		        completed_at = COALESCE(completed_at, ?)
		 WHERE session_id = ?`,
		string(sess.Phase), string(sess.Status),
		nullableMilli(sess.SubmittedAt), nullableMilli(sess.CompletedAt),
		sess.SessionID)
	if err != nil {
		return fmt.Errorf("update phase: %w", err)
	}
	return requireRow(res, sess.SessionID)
}

// SetInsights replaces the session's insights wholesale.
func (s *SQLiteStore) SetInsights(ctx context.Context, sessionID string, ins insights.Insights) error {
	insJSON, err := json.Marshal(ins)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET insights_json = ? WHERE session_id = ?`,
		string(insJSON), sessionID)
	if err != nil {
		return fmt.Errorf("update insights: %w", err)
	}
	return requireRow(res, sessionID)
}

func requireRow(res sql.Result, sessionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return nil
}

func nullableText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nullableMilli(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint failures in the error text;
	// matching on the message avoids importing driver internals.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
