// Package mock provides an in-memory test double for [statestore.Store] with
// error injection and call recording.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/tripmate/internal/statestore"
	"github.com/MrWong99/tripmate/internal/trip"
)

// SaveCall records the arguments of a single Save invocation.
type SaveCall struct {
	ID    string
	State trip.State
}

// Store is a mock implementation of [statestore.Store]. Set the *Err fields
// to inject failures. All methods are safe for concurrent use.
type Store struct {
	mu sync.Mutex

	states map[string]trip.State

	// LoadErr, SaveErr, DeleteErr and PingErr are returned by the matching
	// method when non-nil.
	LoadErr   error
	SaveErr   error
	DeleteErr error
	PingErr   error

	SaveCalls  []SaveCall
	LoadCalls  []string
	closeCalls int
}

var _ statestore.Store = (*Store)(nil)

// New returns an empty mock store.
func New() *Store {
	return &Store{states: make(map[string]trip.State)}
}

// Seed stores s for id without recording a Save call.
func (m *Store) Seed(id string, s trip.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states == nil {
		m.states = make(map[string]trip.State)
	}
	m.states[id] = s
}

// State returns the stored state for id and whether one exists.
func (m *Store) State(id string) (trip.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	return s, ok
}

// Load implements [statestore.Store].
func (m *Store) Load(_ context.Context, id string) (trip.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls = append(m.LoadCalls, id)
	if m.LoadErr != nil {
		return trip.State{}, m.LoadErr
	}
	if s, ok := m.states[id]; ok {
		return s, nil
	}
	return trip.New(), nil
}

// Save implements [statestore.Store]. The call is recorded even when SaveErr
// is set.
func (m *Store) Save(_ context.Context, id string, s trip.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, SaveCall{ID: id, State: s})
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.states == nil {
		m.states = make(map[string]trip.State)
	}
	m.states[id] = s
	return nil
}

// Delete implements [statestore.Store].
func (m *Store) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.states, id)
	return nil
}

// Ping implements [statestore.Store].
func (m *Store) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingErr
}

// Close implements [statestore.Store].
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	return nil
}

// SaveCount returns the number of Save calls.
func (m *Store) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SaveCalls)
}

// CloseCount returns the number of Close calls.
func (m *Store) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}
