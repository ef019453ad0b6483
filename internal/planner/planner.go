// Package planner decides the travel agent's next conversational move from
// the current trip state.
//
// [Decide] is a pure function: the same state always yields the same plan.
// Rules are evaluated in a fixed priority order and the first match wins:
//
//  1. destination unknown        → ask for destination
//  2. dates unknown              → ask for dates
//  3. flights not yet offered    → suggest flight offers
//  4. hotels not yet offered     → suggest hotel offers
//  5. party size unknown         → ask for party size
//  6. budget unknown             → ask for budget
//  7. activities not yet offered → suggest activity offers
//  8. otherwise                  → general chat
//
// Flights and hotels can be searched with only a destination and dates, so
// those offers come before the party-size and budget refinements.
package planner

import (
	"encoding/json"
	"fmt"

	"github.com/MrWong99/tripmate/internal/trip"
)

// Action is the kind of move the agent makes next.
type Action string

const (
	ActionAskQuestion  Action = "ask_question"
	ActionSuggestOffer Action = "suggest_offer"
	// ActionProvideInfo is part of the plan vocabulary shared with the reply
	// prompt. The rule table never selects it.
	ActionProvideInfo Action = "provide_info"
	ActionGeneralChat Action = "general_chat"
)

// Plan is the decision for one turn. It is recomputed every turn and never
// persisted.
type Plan struct {
	NextAction Action `json:"nextAction"`
	Reasoning  string `json:"reasoning"`

	// FocusField names the state field being asked about. Set only for
	// ActionAskQuestion.
	FocusField string `json:"focusField,omitempty"`

	// Offer is the category to present. Set only for ActionSuggestOffer.
	Offer trip.OfferCategory `json:"offerCategory,omitempty"`
}

// JSON returns the compact JSON encoding of p for prompt embedding.
func (p Plan) JSON() string {
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}

type rule func(trip.State) (Plan, bool)

var rules = []rule{
	askIfMissing(trip.FieldDestination, "The destination is unknown; nothing can be searched without it."),
	askIfMissing(trip.FieldDates, "The travel dates are unknown; flights and hotels need them."),
	offerIfNotShown(trip.OfferFlight),
	offerIfNotShown(trip.OfferHotel),
	askIfMissing(trip.FieldPartySize, "Party size is unknown; it refines hotel and activity suggestions."),
	askIfMissing(trip.FieldBudget, "Budget is unknown; it refines every recommendation."),
	offerIfNotShown(trip.OfferActivity),
}

// Decide returns the plan for state s.
func Decide(s trip.State) Plan {
	for _, r := range rules {
		if p, ok := r(s); ok {
			return p
		}
	}
	return Plan{
		NextAction: ActionGeneralChat,
		Reasoning:  "All key details are known and every offer category has been presented.",
	}
}

func askIfMissing(field, reasoning string) rule {
	return func(s trip.State) (Plan, bool) {
		if s.Has(field) {
			return Plan{}, false
		}
		return Plan{
			NextAction: ActionAskQuestion,
			Reasoning:  reasoning,
			FocusField: field,
		}, true
	}
}

func offerIfNotShown(c trip.OfferCategory) rule {
	return func(s trip.State) (Plan, bool) {
		if s.Offered(c) {
			return Plan{}, false
		}
		return Plan{
			NextAction: ActionSuggestOffer,
			Reasoning:  fmt.Sprintf("Destination and dates are known and %s offers have not been shown yet.", c),
			Offer:      c,
		}, true
	}
}
