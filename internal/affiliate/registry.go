package affiliate

import (
	"errors"
	"slices"

	"github.com/samber/lo"

	"github.com/MrWong99/tripmate/internal/trip"
)

// Registry is an immutable, ordered collection of providers. It is safe for
// concurrent use.
type Registry struct {
	providers  []Provider
	byCategory map[trip.OfferCategory][]Provider
}

// NewRegistry returns a registry containing providers in the given order.
// Providers with invalid metadata are kept; offer builders skip them.
func NewRegistry(providers ...Provider) *Registry {
	ps := slices.Clone(providers)
	return &Registry{
		providers: ps,
		byCategory: lo.GroupBy(ps, func(p Provider) trip.OfferCategory {
			return p.Meta().Category
		}),
	}
}

// ByCategory returns the providers registered for c, in registration order.
func (r *Registry) ByCategory(c trip.OfferCategory) []Provider {
	if r == nil {
		return nil
	}
	return slices.Clone(r.byCategory[c])
}

// Providers returns every registered provider.
func (r *Registry) Providers() []Provider {
	if r == nil {
		return nil
	}
	return slices.Clone(r.providers)
}

// Categories returns the categories with at least one provider, in
// presentation order.
func (r *Registry) Categories() []trip.OfferCategory {
	if r == nil {
		return nil
	}
	return lo.Filter(trip.Categories, func(c trip.OfferCategory, _ int) bool {
		return len(r.byCategory[c]) > 0
	})
}

// Validate checks every provider's metadata and reports duplicates.
func (r *Registry) Validate() error {
	var errs []error
	for _, p := range r.providers {
		if err := p.Meta().Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	ids := lo.Map(r.providers, func(p Provider, _ int) string { return p.Meta().ID })
	for _, dup := range lo.FindDuplicates(ids) {
		errs = append(errs, errors.New("affiliate: duplicate provider id "+dup))
	}
	return errors.Join(errs...)
}
