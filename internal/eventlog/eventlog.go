// Package eventlog persists best-effort audit records of conversations.
// Every write swallows its own failure: the audit trail must never fail or
// slow a conversation.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

// Recorder is the audit sink consumed by the transport layer.
type Recorder interface {
	Record(ctx context.Context, sessionID, eventType string, payload any)
	CreateSession(ctx context.Context, sessionID, userID string, startedAt time.Time)
	CloseSession(ctx context.Context, sessionID string, endedAt time.Time)
}

// Nop discards all records. Used when no audit database is configured and in
// tests.
type Nop struct{}

func (Nop) Record(context.Context, string, string, any)              {}
func (Nop) CreateSession(context.Context, string, string, time.Time) {}
func (Nop) CloseSession(context.Context, string, time.Time)          {}

// SQLite records events and session lifecycle rows in a local database.
type SQLite struct {
	db *sql.DB
}

// Open creates the database connection and initializes the schema.
func Open(ctx context.Context, path string) (*SQLite, error) {
	// WAL mode allows readers to proceed alongside the single writer.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log database: %w", err)
	}

	// SQLite does not handle multiple writers well.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping event log database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize event log schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time   TEXT,
		status     TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS event_logs (
		event_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp  TEXT NOT NULL,
		data       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_event_logs_session ON event_logs(session_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record inserts one audit event. Failures are logged and swallowed.
func (s *SQLite) Record(ctx context.Context, sessionID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Str("event_type", eventType).
			Msg("event log payload marshal failed")
		return
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO event_logs (session_id, event_type, timestamp, data) VALUES (?, ?, ?, ?)`,
		sessionID, eventType, time.Now().UTC().Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Str("event_type", eventType).
			Msg("event log insert failed")
	}
}

// CreateSession inserts the session lifecycle row at connect time.
func (s *SQLite) CreateSession(ctx context.Context, sessionID, userID string, startedAt time.Time) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, start_time, status) VALUES (?, ?, ?, 'active')`,
		sessionID, userID, startedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("session record insert failed")
	}
}

// CloseSession marks the session lifecycle row completed at disconnect time.
func (s *SQLite) CloseSession(ctx context.Context, sessionID string, endedAt time.Time) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET end_time = ?, status = 'completed' WHERE session_id = ?`,
		endedAt.UTC().Format(time.RFC3339Nano), sessionID,
	)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("session record update failed")
	}
}
