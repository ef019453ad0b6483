package trip

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// OfferCategory is a kind of affiliate offer.
type OfferCategory string

const (
	OfferNone     OfferCategory = "none"
	OfferFlight   OfferCategory = "flight"
	OfferHotel    OfferCategory = "hotel"
	OfferActivity OfferCategory = "activity"
)

// Categories lists the offer categories in presentation order.
var Categories = []OfferCategory{OfferFlight, OfferHotel, OfferActivity}

// Valid reports whether c is one of the known categories, including
// [OfferNone].
func (c OfferCategory) Valid() bool {
	switch c {
	case OfferNone, OfferFlight, OfferHotel, OfferActivity:
		return true
	}
	return false
}

// ParseOfferCategory accepts a category name in any case, plus the legacy
// "<category>_batch" token form.
func ParseOfferCategory(s string) (OfferCategory, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "_batch")
	switch c := OfferCategory(s); c {
	case OfferNone, OfferFlight, OfferHotel, OfferActivity:
		return c, nil
	case "":
		return OfferNone, nil
	}
	return OfferNone, fmt.Errorf("trip: unknown offer category %q", s)
}

// UnmarshalJSON decodes a category, mapping unknown values to [OfferNone].
func (c *OfferCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOfferCategory(s)
	if err != nil {
		parsed = OfferNone
	}
	*c = parsed
	return nil
}

// OfferSet is a set of offer categories. The zero value is empty. OfferSet is
// a value type; [OfferSet.With] returns a new set.
type OfferSet uint8

func bit(c OfferCategory) OfferSet {
	switch c {
	case OfferFlight:
		return 1 << 0
	case OfferHotel:
		return 1 << 1
	case OfferActivity:
		return 1 << 2
	}
	return 0
}

// NewOfferSet returns a set containing cs.
func NewOfferSet(cs ...OfferCategory) OfferSet {
	var s OfferSet
	for _, c := range cs {
		s = s.With(c)
	}
	return s
}

// Has reports whether c is in the set.
func (s OfferSet) Has(c OfferCategory) bool {
	b := bit(c)
	return b != 0 && s&b != 0
}

// With returns s plus c.
func (s OfferSet) With(c OfferCategory) OfferSet {
	return s | bit(c)
}

// Len returns the number of categories in the set.
func (s OfferSet) Len() int {
	return len(s.Categories())
}

// Categories returns the members in presentation order.
func (s OfferSet) Categories() []OfferCategory {
	var out []OfferCategory
	for _, c := range Categories {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// MarshalJSON encodes the set as a list of category names.
func (s OfferSet) MarshalJSON() ([]byte, error) {
	cats := s.Categories()
	if cats == nil {
		cats = []OfferCategory{}
	}
	return json.Marshal(cats)
}

// tokenWords maps the words accepted inside an offers-shown token to their
// category.
var tokenWords = map[string]OfferCategory{
	"flight": OfferFlight, "flights": OfferFlight,
	"hotel": OfferHotel, "hotels": OfferHotel,
	"activity": OfferActivity, "activities": OfferActivity,
}

// categoryFromToken reads tokens written by older records, such as
// "flight_batch", "flights" or "hotel-offers". The token is split on
// non-letters and the first part naming a category wins, so "flightless" is
// not a flight token.
func categoryFromToken(tok string) (OfferCategory, bool) {
	parts := strings.FieldsFunc(strings.ToLower(tok), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, p := range parts {
		if c, ok := tokenWords[p]; ok {
			return c, true
		}
	}
	return OfferNone, false
}

// UnmarshalJSON decodes a list of category names or legacy tokens.
// Unrecognised entries are dropped.
func (s *OfferSet) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	var out OfferSet
	for _, tok := range tokens {
		if c, ok := categoryFromToken(tok); ok {
			out = out.With(c)
		}
	}
	*s = out
	return nil
}
