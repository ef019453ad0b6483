// Package textnorm folds user text into a canonical form for keyword and
// place-name matching: diacritics removed, case folded, whitespace collapsed.
// "Bucureşti", "BUCURESTI" and " bucuresti " all fold to "bucuresti".
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the canonical matching form of s. Transformers are stateful,
// so a fresh chain is built per call.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// ContainsWord reports whether the folded haystack contains the folded
// needle as a whole word or phrase.
func ContainsWord(haystack, needle string) bool {
	n := strings.Join(Words(needle), " ")
	if n == "" {
		return false
	}
	h := " " + strings.Join(Words(haystack), " ") + " "
	return strings.Contains(h, " "+n+" ")
}

// Words splits the folded form of s into words, dropping punctuation.
func Words(s string) []string {
	return strings.Fields(strings.Map(wordRune, Fold(s)))
}

func wordRune(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return ' '
}
