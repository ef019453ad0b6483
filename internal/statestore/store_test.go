package statestore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/tripmate/internal/trip"
)

func TestValidateID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", "0b7d4f0e-1c1e-4b8e-9a61-4f1f7f0e2a11", false},
		{"short", "c1", false},
		{"empty", "", true},
		{"space", "conv 1", true},
		{"newline", "conv\n1", true},
		{"too long", strings.Repeat("a", MaxConversationIDLen+1), true},
		{"max length", strings.Repeat("a", MaxConversationIDLen), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConversationID) {
				t.Errorf("error %v does not wrap ErrInvalidConversationID", err)
			}
		})
	}
}

// sampleState is a state with every kind of field populated.
func sampleState() trip.State {
	s := trip.New()
	s.Destination = "Lisbon"
	s.DepartureCity = "Berlin"
	s.Dates = "2026-06-10 to 2026-06-17"
	s.PartySize = "2"
	s.Interests = "food, museums"
	s = s.RecordOffer(trip.OfferFlight)
	s = s.RecordOffer(trip.OfferHotel)
	return s
}

// testStoreContract runs the behaviour every [Store] must share.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx, "missing")
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if diff := cmp.Diff(trip.New(), got); diff != "" {
		t.Errorf("Load missing mismatch (-want +got):\n%s", diff)
	}

	want := sampleState()
	if err := s.Save(ctx, "conv-1", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load after Save mismatch (-want +got):\n%s", diff)
	}

	// Overwrite.
	want.Budget = "1500 EUR"
	want = want.RecordOffer(trip.OfferActivity)
	if err := s.Save(ctx, "conv-1", want); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err = s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load overwrite: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load after overwrite mismatch (-want +got):\n%s", diff)
	}

	// Conversations are isolated.
	other, err := s.Load(ctx, "conv-2")
	if err != nil {
		t.Fatalf("Load conv-2: %v", err)
	}
	if other.Destination != "" {
		t.Errorf("conv-2 leaked destination %q", other.Destination)
	}

	if err := s.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
	got, err = s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load after delete: %v", err)
	}
	if diff := cmp.Diff(trip.New(), got); diff != "" {
		t.Errorf("Load after delete mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Load(ctx, ""); !errors.Is(err, ErrInvalidConversationID) {
		t.Errorf("Load empty id error = %v, want ErrInvalidConversationID", err)
	}
	if err := s.Save(ctx, "", want); !errors.Is(err, ErrInvalidConversationID) {
		t.Errorf("Save empty id error = %v, want ErrInvalidConversationID", err)
	}

	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
