// Package offers turns trip state into affiliate offer cards.
//
// The [Selector] presents at most one category per call and enforces the
// flight → hotel → activity order: hotels are only offered right after
// flights, activities only right after hotels, and no category is ever
// offered twice in one conversation.
package offers

import (
	"github.com/MrWong99/tripmate/internal/affiliate"
	"github.com/MrWong99/tripmate/internal/trip"
)

// Card is one affiliate offer shown to the user.
type Card struct {
	ID           string             `json:"id"`
	Type         trip.OfferCategory `json:"type"`
	Provider     string             `json:"provider"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	ImageURL     string             `json:"imageUrl,omitempty"`
	ProviderMeta ProviderMeta       `json:"providerMeta"`
	CallToAction CallToAction       `json:"callToAction"`
}

// ProviderMeta is the display metadata of the card's affiliate.
type ProviderMeta struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BrandColor string `json:"brandColor,omitempty"`
	LogoURL    string `json:"logoUrl,omitempty"`
}

// CallToAction is the card's button.
type CallToAction struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Batch is the set of cards produced for one category in one turn.
type Batch struct {
	Category trip.OfferCategory
	Cards    []Card
}

// Empty reports whether the batch has no cards.
func (b Batch) Empty() bool { return len(b.Cards) == 0 }

func providerMeta(m affiliate.Meta) ProviderMeta {
	return ProviderMeta{
		ID:         m.ID,
		Name:       m.Name,
		BrandColor: m.BrandColor,
		LogoURL:    m.LogoURL,
	}
}
