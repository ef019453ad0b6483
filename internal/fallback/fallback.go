// Package fallback implements the rule-based responder used when the
// language-model path fails. It never returns an error: every input, including
// the empty string, yields a complete [Response].
//
// Rules, first match wins:
//
//  1. a flight keyword plus an extractable route → flight offers;
//  2. a greeting → limited-mode greeting;
//  3. a known city → hotel offers for it;
//  4. anything else → a canned "cannot process" reply.
package fallback

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/tripmate/internal/affiliate"
	"github.com/MrWong99/tripmate/internal/offers"
	"github.com/MrWong99/tripmate/internal/textnorm"
	"github.com/MrWong99/tripmate/internal/trip"
)

// Rule identifies which rule produced a response.
type Rule string

const (
	RuleFlightRoute Rule = "flight_route"
	RuleGreeting    Rule = "greeting"
	RuleKnownCity   Rule = "known_city"
	RuleUnknown     Rule = "unknown"
)

// Replies are fixed templates; %s verbs are filled with city names.
const (
	replyFlight   = "Here are some flight options from %s to %s. I'm running in limited mode right now, so please compare dates and prices on the partner sites."
	replyGreeting = "Hi! I'm your travel assistant. I'm running in limited mode at the moment, but tell me where you'd like to fly (for example \"flight from London to Rome\") and I'll find offers."
	replyCity     = "Here are some places to stay in %s. I'm in limited mode right now, so I can't tailor them to your dates yet."
	replyUnknown  = "Sorry, I can't process complex requests right now. Try something like \"flight from Paris to Rome\" or just name a city."
)

// defaultCities are recognised by rule 3. Local spellings map to the name
// used in links.
var defaultCities = map[string]string{
	"paris": "Paris", "london": "London", "londra": "London", "rome": "Rome",
	"roma": "Rome", "barcelona": "Barcelona", "madrid": "Madrid", "lisbon": "Lisbon",
	"lisabona": "Lisbon", "berlin": "Berlin", "amsterdam": "Amsterdam",
	"vienna": "Vienna", "viena": "Vienna", "prague": "Prague", "praga": "Prague",
	"budapest": "Budapest", "athens": "Athens", "atena": "Athens",
	"istanbul": "Istanbul", "dubai": "Dubai", "tokyo": "Tokyo",
	"new york": "New York", "bucharest": "Bucharest", "bucuresti": "Bucharest",
	"cluj": "Cluj-Napoca", "milan": "Milan", "milano": "Milan", "venice": "Venice",
	"venetia": "Venice", "bali": "Bali",
}

var (
	flightKeyword = regexp.MustCompile(`(?i)\b(?:flights?|fly|flying|zbor(?:uri)?|avion|bilet(?:e)?\s+de\s+avion|plane)\b`)
	greeting      = regexp.MustCompile(`^(?:hi|hello|hey|hiya|good (?:morning|afternoon|evening)|salut|buna(?: ziua| seara)?|hola|ciao|bonjour|hallo|servus)\b`)
)

// fuzzyThreshold is the minimum Jaro-Winkler score for a misspelt city.
const fuzzyThreshold = 0.92

// Response is the fallback's answer. State is always the zero state; it is
// never merged into persisted conversation state.
type Response struct {
	Reply string
	Cards []offers.Card
	State trip.State
	Rule  Rule
}

// Agent is the stateless fallback responder. It is safe for concurrent use.
type Agent struct {
	selector *offers.Selector
	cities   map[string]string
	keys     []string // cities keys, longest first then alphabetical
	now      func() time.Time
}

// Option configures an [Agent].
type Option func(*Agent)

// WithClock overrides the time source used for the default departure date.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

// WithCities adds recognised city names. Keys are matched after folding;
// values are used in links and replies.
func WithCities(cities map[string]string) Option {
	return func(a *Agent) {
		for k, v := range cities {
			if f := textnorm.Fold(k); f != "" && v != "" {
				a.cities[f] = v
			}
		}
	}
}

// New returns an Agent that builds cards with sel.
func New(sel *offers.Selector, opts ...Option) *Agent {
	a := &Agent{
		selector: sel,
		cities:   make(map[string]string, len(defaultCities)),
		now:      time.Now,
	}
	for k, v := range defaultCities {
		a.cities[k] = v
	}
	for _, o := range opts {
		o(a)
	}
	a.keys = make([]string, 0, len(a.cities))
	for k := range a.cities {
		a.keys = append(a.keys, k)
	}
	sort.Slice(a.keys, func(i, j int) bool {
		if len(a.keys[i]) != len(a.keys[j]) {
			return len(a.keys[i]) > len(a.keys[j])
		}
		return a.keys[i] < a.keys[j]
	})
	return a
}

// Respond answers msg without any external I/O.
func (a *Agent) Respond(msg string) Response {
	if flightKeyword.MatchString(msg) {
		if r, ok := ExtractRoute(msg); ok && a.plausibleCity(r.From) && a.plausibleCity(r.To) {
			b := a.selector.Build(trip.OfferFlight, affiliate.Params{
				Origin:      r.From,
				Destination: r.To,
				DepartDate:  a.now().Format(time.DateOnly),
			})
			return Response{
				Reply: fmt.Sprintf(replyFlight, r.From, r.To),
				Cards: b.Cards,
				Rule:  RuleFlightRoute,
			}
		}
	}

	folded := textnorm.Fold(msg)
	if greeting.MatchString(folded) {
		return Response{Reply: replyGreeting, Rule: RuleGreeting}
	}

	if name, ok := a.findCity(msg); ok {
		b := a.selector.Build(trip.OfferHotel, affiliate.Params{Destination: name})
		return Response{
			Reply: fmt.Sprintf(replyCity, name),
			Cards: b.Cards,
			Rule:  RuleKnownCity,
		}
	}

	return Response{Reply: replyUnknown, Rule: RuleUnknown}
}

// plausibleCity accepts capitalised names and known cities in any case, so
// "flight somewhere warm" is not read as a route.
func (a *Agent) plausibleCity(name string) bool {
	for _, r := range name {
		if unicode.IsUpper(r) {
			return true
		}
		break
	}
	_, ok := a.cities[textnorm.Fold(name)]
	return ok
}

// findCity returns the first known city mentioned in msg, trying exact word
// matches before Jaro-Winkler fuzzy matches on single words.
func (a *Agent) findCity(msg string) (string, bool) {
	words := textnorm.Words(msg)
	if len(words) == 0 {
		return "", false
	}
	haystack := " " + strings.Join(words, " ") + " "

	for _, k := range a.keys {
		if strings.Contains(haystack, " "+k+" ") {
			return a.cities[k], true
		}
	}

	bestScore, best := 0.0, ""
	for _, w := range words {
		n := len([]rune(w))
		if n < 5 {
			continue
		}
		for _, k := range a.keys {
			if strings.Contains(k, " ") || abs(len([]rune(k))-n) > 1 {
				continue
			}
			if s := matchr.JaroWinkler(w, k, false); s >= fuzzyThreshold && s > bestScore {
				bestScore, best = s, k
			}
		}
	}
	if best == "" {
		return "", false
	}
	return a.cities[best], true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
