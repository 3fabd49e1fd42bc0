// Package journal keeps an append-only log of accepted edits in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database file created in the data directory.
const FileName = "journal.db"

// Store handles journal persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Entry is one accepted edit.
type Entry struct {
	ID          int64
	SessionID   string
	FlowID      string
	File        string
	Action      string // history action, e.g. add_step
	Description string
	Valid       bool // document validity after the edit
	RecordedAt  time.Time
}

// SessionSummary aggregates the edits of one editing session.
type SessionSummary struct {
	SessionID string
	FlowID    string
	File      string
	Edits     int
	FirstAt   time.Time
	LastAt    time.Time
}

// NewStore opens (creating if needed) the journal in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS edits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		flow_id TEXT NOT NULL,
		file TEXT,
		action TEXT NOT NULL,
		description TEXT,
		valid INTEGER NOT NULL DEFAULT 0,
		recorded_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edits_flow ON edits(flow_id);
	CREATE INDEX IF NOT EXISTS idx_edits_session ON edits(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends an edit. A zero RecordedAt means now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	at := e.RecordedAt
	if at.IsZero() {
		at = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edits (session_id, flow_id, file, action, description, valid, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.FlowID, e.File, e.Action, e.Description, e.Valid, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("record edit: %w", err)
	}
	return nil
}

// List returns up to limit edits, newest first. An empty flowID lists every
// flow; a non-positive limit means 50.
func (s *Store) List(ctx context.Context, flowID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, flow_id, COALESCE(file, ''), action, COALESCE(description, ''), valid, recorded_at
		FROM edits
		WHERE ? = '' OR flow_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, flowID, flowID, limit)
	if err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.FlowID, &e.File, &e.Action, &e.Description, &e.Valid, &ms); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		e.RecordedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sessions summarizes every recorded session, most recent first.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, MAX(flow_id), MAX(COALESCE(file, '')), COUNT(*), MIN(recorded_at), MAX(recorded_at)
		FROM edits
		GROUP BY session_id
		ORDER BY MAX(recorded_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		var first, last int64
		if err := rows.Scan(&ss.SessionID, &ss.FlowID, &ss.File, &ss.Edits, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ss.FirstAt = time.UnixMilli(first)
		ss.LastAt = time.UnixMilli(last)
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Prune deletes edits recorded before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM edits WHERE recorded_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune edits: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
