// Package statestore persists per-conversation trip state.
//
// Every backend satisfies [Store]. Loading a conversation that has never been
// saved is not an error: it returns [trip.New]. Backends provide no locking
// across a load/save pair; concurrent turns for the same conversation are
// last-write-wins.
package statestore

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/MrWong99/tripmate/internal/trip"
)

// MaxConversationIDLen bounds conversation identifiers.
const MaxConversationIDLen = 128

// ErrInvalidConversationID is returned for empty, oversized, or
// control-character conversation IDs.
var ErrInvalidConversationID = errors.New("statestore: invalid conversation id")

// Store loads and saves trip state keyed by conversation ID.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the state for id, or trip.New() when none is stored.
	Load(ctx context.Context, id string) (trip.State, error)

	// Save replaces the state for id.
	Save(ctx context.Context, id string, s trip.State) error

	// Delete removes the state for id. Deleting a missing conversation is
	// not an error.
	Delete(ctx context.Context, id string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources owned by the store.
	Close() error
}

// Migrator is implemented by SQL backends that need a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// ValidateID checks a conversation identifier.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidConversationID)
	}
	if len(id) > MaxConversationIDLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidConversationID, MaxConversationIDLen)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidConversationID)
		}
	}
	return nil
}
