package statestore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/MrWong99/tripmate/internal/trip"
)

// MemoryStore keeps state in process memory with an optional idle TTL. State
// is lost on restart.
type MemoryStore struct {
	c *cache.Cache
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore. A ttl of zero keeps entries forever;
// otherwise each save restarts the entry's TTL. A cleanupInterval of zero
// disables the background janitor, leaving expired entries to be dropped on
// access.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(ttl, cleanupInterval)}
}

// Load implements [Store].
func (m *MemoryStore) Load(_ context.Context, id string) (trip.State, error) {
	if err := ValidateID(id); err != nil {
		return trip.State{}, err
	}
	v, ok := m.c.Get(id)
	if !ok {
		return trip.New(), nil
	}
	return v.(trip.State), nil
}

// Save implements [Store].
func (m *MemoryStore) Save(_ context.Context, id string, s trip.State) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	m.c.Set(id, s, cache.DefaultExpiration)
	return nil
}

// Delete implements [Store].
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	m.c.Delete(id)
	return nil
}

// Len returns the number of stored conversations, including expired entries
// not yet cleaned up.
func (m *MemoryStore) Len() int { return m.c.ItemCount() }

// Ping implements [Store]. It always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close implements [Store]. It drops all entries.
func (m *MemoryStore) Close() error {
	m.c.Flush()
	return nil
}
