package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"cmdbar/internal/logging"
	"cmdbar/internal/sqlutil"
)

// HistoryEntry is one executed command.
type HistoryEntry struct {
	ID        string
	ActorID   string
	Line      string
	Kind      string
	Message   string
	Redirect  string
	CreatedAt time.Time
}

// History is the SQLite log of executed commands.
type History struct {
	db *sql.DB
	mu sync.Mutex
}

const historySchema = `
CREATE TABLE IF NOT EXISTS command_history (
	id TEXT PRIMARY KEY,
	actor_id TEXT NOT NULL,
	line TEXT NOT NULL,
	kind TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	redirect TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
)`

const historyIndex = `CREATE INDEX IF NOT EXISTS idx_command_history_actor ON command_history(actor_id, created_at)`

// OpenHistory opens the history database at path.
func OpenHistory(path string) (*History, error) {
	db, err := sqlutil.Open(path)
	if err != nil {
		return nil, err
	}
	h, err := NewHistory(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

// NewHistory wraps an open database, creating the schema if needed.
func NewHistory(db *sql.DB) (*History, error) {
	if err := sqlutil.Migrate(db, historySchema, historyIndex); err != nil {
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends an entry, assigning its id and timestamp when unset.
func (h *History) Record(ctx context.Context, e HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.ID == "" {
		e.ID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := h.db.ExecContext(ctx,
		`INSERT INTO command_history (id, actor_id, line, kind, message, redirect, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, e.Line, e.Kind, e.Message, e.Redirect, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		logging.StoreError("Failed to record command %q: %v", e.Line, err)
		return fmt.Errorf("failed to record command: %w", err)
	}
	logging.StoreDebug("Recorded command %s: %s", e.Kind, e.Line)
	return nil
}

// Recent returns the newest entries first. An empty actorID lists everyone's.
func (h *History) Recent(ctx context.Context, actorID string, limit int) ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, actor_id, line, kind, message, redirect, created_at FROM command_history`
	args := []interface{}{}
	if actorID != "" {
		query += ` WHERE actor_id = ?`
		args = append(args, actorID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Line, &e.Kind, &e.Message, &e.Redirect, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded commands.
func (h *History) Count(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT count(*) FROM command_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}
