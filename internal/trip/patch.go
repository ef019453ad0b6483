package trip

import (
	"strconv"
	"strings"
)

// Patch is a validated set of facts extracted from one user message. A nil
// field means "nothing learned"; it never clears a known value.
//
// Bookkeeping fields (LastOfferType, OffersShown) are deliberately absent:
// only the orchestrator changes them.
type Patch struct {
	Destination   *string
	DepartureCity *string
	Dates         *string
	PartySize     *string
	Budget        *string
	TripType      *string
	Interests     *string
}

// fieldAliases maps accepted model output keys to canonical field names.
var fieldAliases = map[string]string{
	"destination":    FieldDestination,
	"departurecity":  FieldDepartureCity,
	"departure_city": FieldDepartureCity,
	"origin":         FieldDepartureCity,
	"from":           FieldDepartureCity,
	"dates":          FieldDates,
	"date":           FieldDates,
	"traveldates":    FieldDates,
	"travel_dates":   FieldDates,
	"partysize":      FieldPartySize,
	"party_size":     FieldPartySize,
	"travelers":      FieldPartySize,
	"travellers":     FieldPartySize,
	"budget":         FieldBudget,
	"triptype":       FieldTripType,
	"trip_type":      FieldTripType,
	"interests":      FieldInterests,
}

// PatchFromJSON builds a Patch from a decoded model response. Unknown keys,
// nulls, blank strings and values of unusable types are discarded. Numbers
// are accepted for partySize and budget; string lists are accepted for
// interests; {"start","end"} objects are accepted for dates.
//
// When the model wraps the state in a "state" or "tripState" object, the
// wrapper is unwrapped first.
func PatchFromJSON(obj map[string]any) Patch {
	for _, key := range []string{"state", "tripState", "trip_state"} {
		if inner, ok := obj[key].(map[string]any); ok {
			obj = inner
			break
		}
	}

	var p Patch
	for key, raw := range obj {
		field, ok := fieldAliases[strings.ToLower(key)]
		if !ok {
			continue
		}
		val, ok := coerce(field, raw)
		if !ok {
			continue
		}
		switch field {
		case FieldDestination:
			p.Destination = &val
		case FieldDepartureCity:
			p.DepartureCity = &val
		case FieldDates:
			p.Dates = &val
		case FieldPartySize:
			p.PartySize = &val
		case FieldBudget:
			p.Budget = &val
		case FieldTripType:
			p.TripType = &val
		case FieldInterests:
			p.Interests = &val
		}
	}
	return p
}

func coerce(field string, raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "unknown") {
			return "", false
		}
		return v, true
	case float64:
		if field != FieldPartySize && field != FieldBudget {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case []any:
		if field != FieldInterests {
			return "", false
		}
		var parts []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ", "), true
	case map[string]any:
		if field != FieldDates {
			return "", false
		}
		start, _ := v["start"].(string)
		end, _ := v["end"].(string)
		start, end = strings.TrimSpace(start), strings.TrimSpace(end)
		switch {
		case start != "" && end != "":
			return start + " to " + end, true
		case start != "":
			return start, true
		}
		return "", false
	}
	return "", false
}

// Empty reports whether the patch carries no facts.
func (p Patch) Empty() bool {
	return p.Destination == nil && p.DepartureCity == nil && p.Dates == nil &&
		p.PartySize == nil && p.Budget == nil && p.TripType == nil && p.Interests == nil
}

// Fields returns the names of the fields the patch sets.
func (p Patch) Fields() []string {
	var out []string
	add := func(name string, v *string) {
		if v != nil {
			out = append(out, name)
		}
	}
	add(FieldDestination, p.Destination)
	add(FieldDepartureCity, p.DepartureCity)
	add(FieldDates, p.Dates)
	add(FieldPartySize, p.PartySize)
	add(FieldBudget, p.Budget)
	add(FieldTripType, p.TripType)
	add(FieldInterests, p.Interests)
	return out
}

// Apply returns a copy of s with every field set in p overwritten. Applying an
// empty patch returns s unchanged.
func (s State) Apply(p Patch) State {
	set := func(dst *string, v *string) {
		if v != nil && *v != "" {
			*dst = *v
		}
	}
	set(&s.Destination, p.Destination)
	set(&s.DepartureCity, p.DepartureCity)
	set(&s.Dates, p.Dates)
	set(&s.PartySize, p.PartySize)
	set(&s.Budget, p.Budget)
	set(&s.TripType, p.TripType)
	set(&s.Interests, p.Interests)
	return s
}
