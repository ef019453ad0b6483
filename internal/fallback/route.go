package fallback

import (
	"regexp"
	"strings"
)

// Route is an origin/destination pair extracted from free text.
type Route struct {
	From string
	To   string
}

// city matches one place name: either a run of capitalised words ("New York",
// "Los Angeles") or a single word in any case.
const city = `(\p{Lu}[\p{L}'.]*(?:\s+\p{Lu}[\p{L}'.]*)*|\p{L}[\p{L}'.]*)`

const flightKeyword = `(?:flights?|zbor(?:uri)?|fly|avion)`

// routePatterns are tried in order; the first match wins. Keywords are
// case-insensitive, city capture groups are not, so multi-word names stop at
// the first lowercase word.
var routePatterns = []*regexp.Regexp{
	// "from Berlin to Rome", "din Cluj spre Paris"
	regexp.MustCompile(`(?i:\b(?:from|din|de la)\s+)` + city + `\s+(?i:to|toward|towards|spre|catre|către|la)\s+` + city),
	// "flight Berlin Rome", "zbor Bucuresti Londra", "Flight Paris -> Rome"
	regexp.MustCompile(`(?i:\b` + flightKeyword + `\s+)` + city + `(?:\s*(?:->|→|=>)\s*|\s+(?:(?i:to|spre|-)\s+)?)` + city),
	// "Berlin -> Rome", "Berlin → Rome"
	regexp.MustCompile(city + `\s*(?:->|→|=>)\s*` + city),
}

// leadingKeywords are dropped from the front of a capture. A capitalised
// keyword ("Flight Paris") otherwise joins the run of capitalised words.
var leadingKeywords = map[string]bool{
	"flight": true, "flights": true, "zbor": true, "zboruri": true, "fly": true,
	"avion": true, "from": true, "din": true,
}

// stopWords are never accepted as a city.
var stopWords = map[string]bool{
	"to": true, "from": true, "the": true, "a": true, "for": true, "me": true,
	"please": true, "cheap": true, "tickets": true, "ticket": true, "spre": true,
	"din": true, "la": true, "in": true, "un": true, "o": true, "de": true,
	"next": true, "this": true, "tomorrow": true, "today": true,
}

// ExtractRoute finds an origin and destination in msg.
func ExtractRoute(msg string) (Route, bool) {
	for _, re := range routePatterns {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		r := Route{From: cleanCity(m[1]), To: cleanCity(m[2])}
		if r.From == "" || r.To == "" || strings.EqualFold(r.From, r.To) {
			continue
		}
		return r, true
	}
	return Route{}, false
}

func cleanCity(s string) string {
	words := strings.Fields(s)
	for len(words) > 1 && leadingKeywords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	s = strings.Trim(strings.Join(words, " "), ".'")
	if stopWords[strings.ToLower(s)] {
		return ""
	}
	return s
}
