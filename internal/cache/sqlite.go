package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cmdbar/internal/logging"
	"cmdbar/internal/sqlutil"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS translation_cache (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	expires_at INTEGER NOT NULL
)`

// SQLite persists entries across CLI invocations.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration

	// Now is the clock used for expiry.
	Now func() time.Time
}

// OpenSQLite opens the cache database at path.
func OpenSQLite(path string, ttl time.Duration) (*SQLite, error) {
	db, err := sqlutil.Open(path)
	if err != nil {
		return nil, err
	}
	if err := sqlutil.Migrate(db, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return &SQLite{db: db, ttl: ttl, Now: time.Now}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM translation_cache WHERE key = ? AND expires_at > ?`,
		key, s.Now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_cache (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, s.Now().Add(s.ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Prune deletes expired entries.
func (s *SQLite) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_cache WHERE expires_at <= ?`, s.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.CacheDebug("Pruned %d expired translations", n)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
