package docmap

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQLiteStore persists document maps in an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("docmap: open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS document_map (
		content_hash TEXT PRIMARY KEY,
		version      INTEGER NOT NULL,
		built_at     TEXT NOT NULL,
		payload      BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("docmap: create table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, hash string) (*DocumentMap, error) {
	var version int
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT version, payload FROM document_map WHERE content_hash = ?`, hash).
		Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docmap: sqlite get: %w", err)
	}
	if version != MapVersion {
		return nil, ErrNotFound
	}
	var m DocumentMap
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("docmap: decode stored map: %w", err)
	}
	return &m, nil
}

// PutIfAbsent implements Store. INSERT OR IGNORE makes concurrent writers
// for the same hash race safely; the first insert wins.
func (s *SQLiteStore) PutIfAbsent(ctx context.Context, hash string, m *DocumentMap) (*DocumentMap, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("docmap: encode map: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO document_map (content_hash, version, built_at, payload)
		 VALUES (?, ?, ?, ?)`,
		hash, m.Version, m.BuiltAt.Format("2006-01-02T15:04:05Z07:00"), payload)
	if err != nil {
		return nil, fmt.Errorf("docmap: sqlite put: %w", err)
	}
	stored, err := s.Get(ctx, hash)
	if errors.Is(err, ErrNotFound) {
		// A stale-version row occupied the slot; replace it.
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO document_map (content_hash, version, built_at, payload)
			 VALUES (?, ?, ?, ?)`,
			hash, m.Version, m.BuiltAt.Format("2006-01-02T15:04:05Z07:00"), payload); err != nil {
			return nil, fmt.Errorf("docmap: sqlite replace: %w", err)
		}
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
