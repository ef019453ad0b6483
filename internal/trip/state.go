// Package trip defines the per-conversation trip state the travel agent
// accumulates across turns, together with the typed patch used to merge
// language-model output into it.
//
// A [State] is a plain value. Operations that change it ([State.Apply],
// [State.RecordOffer]) return a new value and leave the receiver untouched,
// so callers can keep the pre-turn state around for comparison or rollback.
package trip

import (
	"encoding/json"
	"strings"
)

// Field names as they appear in the serialised state and in planner focus
// hints.
const (
	FieldDestination   = "destination"
	FieldDepartureCity = "departureCity"
	FieldDates         = "dates"
	FieldPartySize     = "partySize"
	FieldBudget        = "budget"
	FieldTripType      = "tripType"
	FieldInterests     = "interests"
)

// State is the trip-planning state of a single conversation.
//
// Optional fields use the empty string for "unknown". Merges never write an
// empty string over a known value, so a blank field always means the fact
// has not been learned yet.
type State struct {
	Destination   string `json:"destination,omitempty"`
	DepartureCity string `json:"departureCity,omitempty"`
	Dates         string `json:"dates,omitempty"`
	PartySize     string `json:"partySize,omitempty"`
	Budget        string `json:"budget,omitempty"`
	TripType      string `json:"tripType,omitempty"`
	Interests     string `json:"interests,omitempty"`

	// LastOfferType is the category of the most recently presented offer
	// batch, or [OfferNone].
	LastOfferType OfferCategory `json:"lastOfferType,omitempty"`

	// OffersShown records every category already presented in this
	// conversation. It only grows.
	OffersShown OfferSet `json:"offersShown,omitempty"`
}

// New returns the default state for a conversation that has no history.
func New() State {
	return State{LastOfferType: OfferNone}
}

// Has reports whether the named field is known. Unknown names report false.
func (s State) Has(field string) bool {
	switch field {
	case FieldDestination:
		return s.Destination != ""
	case FieldDepartureCity:
		return s.DepartureCity != ""
	case FieldDates:
		return s.Dates != ""
	case FieldPartySize:
		return s.PartySize != ""
	case FieldBudget:
		return s.Budget != ""
	case FieldTripType:
		return s.TripType != ""
	case FieldInterests:
		return s.Interests != ""
	default:
		return false
	}
}

// DateRange parses the Dates field.
func (s State) DateRange() DateRange {
	return ParseDateRange(s.Dates)
}

// Offered reports whether category c was already presented, either as the
// last batch or earlier in the conversation.
func (s State) Offered(c OfferCategory) bool {
	return s.LastOfferType == c || s.OffersShown.Has(c)
}

// RecordOffer returns a copy of s updated to reflect that a batch of
// category c was just produced.
func (s State) RecordOffer(c OfferCategory) State {
	if c == OfferNone || !c.Valid() {
		return s
	}
	s.LastOfferType = c
	s.OffersShown = s.OffersShown.With(c)
	return s
}

// Normalize fills defaults that older or foreign records may lack. A record
// that lists shown offers but no last offer takes the latest shown category
// as its last offer, so the offer sequence can continue.
func (s State) Normalize() State {
	if s.LastOfferType == "" {
		s.LastOfferType = OfferNone
	}
	if cats := s.OffersShown.Categories(); s.LastOfferType == OfferNone && len(cats) > 0 {
		s.LastOfferType = cats[len(cats)-1]
	}
	s.Destination = strings.TrimSpace(s.Destination)
	s.DepartureCity = strings.TrimSpace(s.DepartureCity)
	s.Dates = strings.TrimSpace(s.Dates)
	s.PartySize = strings.TrimSpace(s.PartySize)
	s.Budget = strings.TrimSpace(s.Budget)
	s.TripType = strings.TrimSpace(s.TripType)
	s.Interests = strings.TrimSpace(s.Interests)
	return s
}

// JSON returns the compact JSON encoding of s. It is used when the state is
// embedded in prompts, where an encoding failure is not actionable.
func (s State) JSON() string {
	b, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Decode parses a serialised state. An empty or "null" payload yields [New].
func Decode(data []byte) (State, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return New(), nil
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, err
	}
	return s.Normalize(), nil
}
