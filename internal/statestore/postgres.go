package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/tripmate/internal/trip"
)

// PostgresSchema is the SQL DDL for the trip_states table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS trip_states (
    conversation_id TEXT PRIMARY KEY,
    state           JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_trip_states_updated ON trip_states(updated_at);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresStore is a [Store] backed by a PostgreSQL JSONB column.
type PostgresStore struct {
	db    DB
	close func()
}

var (
	_ Store    = (*PostgresStore)(nil)
	_ Migrator = (*PostgresStore)(nil)
)

// NewPostgresStore creates a [PostgresStore] over an existing connection or
// pool. The caller keeps ownership of db; Close is a no-op. Call
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, close: func() {}}
}

// OpenPostgres creates a connection pool for dsn, verifies connectivity and
// returns a store that closes the pool on Close.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("statestore: postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("statestore: postgres: ping: %w", err)
	}
	return &PostgresStore{db: pool, close: pool.Close}, nil
}

// Migrate executes [PostgresSchema].
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("statestore: postgres: migrate: %w", err)
	}
	return nil
}

// Load implements [Store].
func (s *PostgresStore) Load(ctx context.Context, id string) (trip.State, error) {
	if err := ValidateID(id); err != nil {
		return trip.State{}, err
	}

	const query = `SELECT state FROM trip_states WHERE conversation_id = $1`

	var raw []byte
	err := s.db.QueryRow(ctx, query, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trip.New(), nil
		}
		return trip.State{}, fmt.Errorf("statestore: postgres: load %q: %w", id, err)
	}

	st, err := trip.Decode(raw)
	if err != nil {
		return trip.State{}, fmt.Errorf("statestore: postgres: decode %q: %w", id, err)
	}
	return st, nil
}

// Save implements [Store].
func (s *PostgresStore) Save(ctx context.Context, id string, st trip.State) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("statestore: postgres: marshal %q: %w", id, err)
	}

	const query = `
		INSERT INTO trip_states (conversation_id, state)
		VALUES ($1, $2)
		ON CONFLICT (conversation_id) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = now()`

	if _, err := s.db.Exec(ctx, query, id, data); err != nil {
		return fmt.Errorf("statestore: postgres: save %q: %w", id, err)
	}
	return nil
}

// Delete implements [Store].
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	const query = `DELETE FROM trip_states WHERE conversation_id = $1`
	if _, err := s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("statestore: postgres: delete %q: %w", id, err)
	}
	return nil
}

// Ping implements [Store].
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("statestore: postgres: ping: %w", err)
	}
	return nil
}

// Close implements [Store].
func (s *PostgresStore) Close() error {
	s.close()
	return nil
}
