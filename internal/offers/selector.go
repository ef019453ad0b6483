package offers

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/google/uuid"

	"github.com/MrWong99/tripmate/internal/affiliate"
	"github.com/MrWong99/tripmate/internal/trip"
)

// Selector builds offer batches from a provider registry. It is safe for
// concurrent use.
type Selector struct {
	registry *affiliate.Registry
	newID    func() string
}

// Option configures a [Selector].
type Option func(*Selector)

// WithIDFunc overrides card ID generation. The default is a random UUID.
func WithIDFunc(fn func() string) Option {
	return func(s *Selector) {
		s.newID = fn
	}
}

// NewSelector returns a Selector over reg.
func NewSelector(reg *affiliate.Registry, opts ...Option) *Selector {
	s := &Selector{
		registry: reg,
		newID:    func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Registry returns the selector's provider registry.
func (s *Selector) Registry() *affiliate.Registry { return s.registry }

// Select returns the next offer batch for st, or an empty batch when no
// category is due. At most one category is produced per call:
//
//   - flights when dates are known and flights were never offered;
//   - otherwise hotels, only when the previous batch was flights;
//   - otherwise activities, only when the previous batch was hotels.
func (s *Selector) Select(st trip.State) Batch {
	switch {
	case st.Dates != "" && !st.Offered(trip.OfferFlight):
		return s.Build(trip.OfferFlight, paramsFor(st))
	case st.LastOfferType == trip.OfferFlight && !st.OffersShown.Has(trip.OfferHotel):
		return s.Build(trip.OfferHotel, paramsFor(st))
	case st.LastOfferType == trip.OfferHotel && !st.OffersShown.Has(trip.OfferActivity):
		return s.Build(trip.OfferActivity, paramsFor(st))
	}
	return Batch{}
}

// Build creates one card per registered provider of category c. Providers
// with invalid metadata, or whose link cannot be built from p, are skipped.
func (s *Selector) Build(c trip.OfferCategory, p affiliate.Params) Batch {
	b := Batch{Category: c}
	for _, prov := range s.registry.ByCategory(c) {
		meta := prov.Meta()
		if err := meta.Validate(); err != nil {
			slog.Debug("offers: skipping provider with invalid metadata", "err", err)
			continue
		}
		link, err := prov.BuildLink(p)
		if err != nil {
			slog.Debug("offers: skipping provider", "provider", meta.ID, "err", err)
			continue
		}
		b.Cards = append(b.Cards, Card{
			ID:           s.newID(),
			Type:         c,
			Provider:     meta.Name,
			Title:        title(c, meta.Name, p),
			Description:  meta.Description,
			ImageURL:     meta.LogoURL,
			ProviderMeta: providerMeta(meta),
			CallToAction: CallToAction{Label: meta.CTALabel, URL: link},
		})
	}
	return b
}

func title(c trip.OfferCategory, provider string, p affiliate.Params) string {
	switch c {
	case trip.OfferFlight:
		if p.Origin != "" {
			return fmt.Sprintf("Flights %s → %s on %s", p.Origin, p.Destination, provider)
		}
		return fmt.Sprintf("Flights to %s on %s", p.Destination, provider)
	case trip.OfferHotel:
		return fmt.Sprintf("Stays in %s on %s", p.Destination, provider)
	case trip.OfferActivity:
		return fmt.Sprintf("Things to do in %s with %s", p.Destination, provider)
	}
	return provider
}

// paramsFor derives link parameters from trip state. Dates that did not parse
// are left out of the link.
func paramsFor(st trip.State) affiliate.Params {
	dr := st.DateRange()
	return affiliate.Params{
		Origin:      st.DepartureCity,
		Destination: st.Destination,
		DepartDate:  dr.DepartDate(),
		ReturnDate:  dr.ReturnDate(),
		Adults:      Adults(st.PartySize),
	}
}

var firstNumber = regexp.MustCompile(`\d+`)

// Adults extracts a traveller count from a free-text party size such as
// "2 adults" or "4". It returns 0 when no count is present.
func Adults(partySize string) int {
	m := firstNumber.FindString(partySize)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil || n > 99 {
		return 0
	}
	return n
}
