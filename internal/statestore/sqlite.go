package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go driver

	"github.com/MrWong99/tripmate/internal/trip"
)

// SQLiteSchema is the DDL for the SQLite backend.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS trip_states (
    conversation_id TEXT PRIMARY KEY,
    state           TEXT NOT NULL,
    updated_at      INTEGER NOT NULL
);
`

// SQLiteStore is a [Store] backed by a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ Store    = (*SQLiteStore)(nil)
	_ Migrator = (*SQLiteStore)(nil)
)

// OpenSQLite opens (creating if needed) the database at path with WAL
// journaling and the given busy timeout, and verifies connectivity.
func OpenSQLite(path string, busyTimeout time.Duration) (*SQLiteStore, error) {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("statestore: sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("statestore: sqlite: ping: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Migrate creates the trip_states table if needed.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("statestore: sqlite: migrate: %w", err)
	}
	return nil
}

// Load implements [Store].
func (s *SQLiteStore) Load(ctx context.Context, id string) (trip.State, error) {
	if err := ValidateID(id); err != nil {
		return trip.State{}, err
	}
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM trip_states WHERE conversation_id = ?`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return trip.New(), nil
		}
		return trip.State{}, fmt.Errorf("statestore: sqlite: load %q: %w", id, err)
	}
	st, err := trip.Decode([]byte(raw))
	if err != nil {
		return trip.State{}, fmt.Errorf("statestore: sqlite: decode %q: %w", id, err)
	}
	return st, nil
}

// Save implements [Store].
func (s *SQLiteStore) Save(ctx context.Context, id string, st trip.State) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("statestore: sqlite: marshal %q: %w", id, err)
	}
	const query = `
		INSERT INTO trip_states (conversation_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, id, string(data), s.now().Unix()); err != nil {
		return fmt.Errorf("statestore: sqlite: save %q: %w", id, err)
	}
	return nil
}

// Delete implements [Store].
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trip_states WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("statestore: sqlite: delete %q: %w", id, err)
	}
	return nil
}

// Ping implements [Store].
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("statestore: sqlite: ping: %w", err)
	}
	return nil
}

// Close implements [Store].
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
