package trip

import (
	"strings"
	"time"
)

// Separators recognised between the start and end of a date range. The first
// separator found in the text wins.
var rangeSeparators = []string{" to ", " - "}

// dateLayouts are tried in order when parsing a single date.
var dateLayouts = []string{
	time.DateOnly,
	"02.01.2006",
	"02/01/2006",
	"2 January 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// DateRange is the parsed form of a free-text travel dates string.
//
// Depart and Return hold the raw text components after splitting on a range
// separator. Start and End are only set when both components parse as
// calendar dates and End is not before Start; otherwise the range is
// unparsed and the date accessors return "".
type DateRange struct {
	Raw    string
	Depart string
	Return string
	Start  time.Time
	End    time.Time
}

// ParseDateRange splits s on " to " or " - " and tries to parse each side.
// A string without a separator is treated as a single departure date.
func ParseDateRange(s string) DateRange {
	s = strings.TrimSpace(s)
	r := DateRange{Raw: s}
	if s == "" {
		return r
	}

	r.Depart = s
	for _, sep := range rangeSeparators {
		if before, after, ok := strings.Cut(s, sep); ok {
			r.Depart = strings.TrimSpace(before)
			r.Return = strings.TrimSpace(after)
			break
		}
	}

	start, okStart := parseDate(r.Depart)
	if !okStart {
		return r
	}
	if r.Return == "" {
		r.Start = start
		return r
	}
	end, okEnd := parseDate(r.Return)
	if !okEnd || end.Before(start) {
		return r
	}
	r.Start, r.End = start, end
	return r
}

// Parsed reports whether the departure date was recognised as a calendar
// date.
func (r DateRange) Parsed() bool {
	return !r.Start.IsZero()
}

// IsRange reports whether the text named both a start and an end.
func (r DateRange) IsRange() bool {
	return r.Return != ""
}

// DepartDate returns the departure date as YYYY-MM-DD, or "" when the range
// is unparsed. Raw free text is never returned.
func (r DateRange) DepartDate() string {
	if !r.Parsed() {
		return ""
	}
	return r.Start.Format(time.DateOnly)
}

// ReturnDate returns the return date as YYYY-MM-DD, or "" when the range has
// no parsed end.
func (r DateRange) ReturnDate() string {
	if !r.Parsed() || r.End.IsZero() {
		return ""
	}
	return r.End.Format(time.DateOnly)
}

// Nights returns the number of nights between Start and End, or 0 when the
// range is not fully parsed.
func (r DateRange) Nights() int {
	if r.Start.IsZero() || r.End.IsZero() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours() / 24)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
