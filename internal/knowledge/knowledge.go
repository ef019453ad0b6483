// Package knowledge provides short, static destination facts used to enrich
// the agent's replies. The built-in dataset is embedded in the binary and can
// be extended from configuration.
//
// All methods are safe for concurrent use; a [Base] is read-only after
// construction.
package knowledge

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/tripmate/internal/textnorm"
)

//go:embed destinations.yaml
var builtinData []byte

// Entry is one destination fact with the keywords that select it.
type Entry struct {
	Keywords []string `yaml:"keywords"`
	Fact     string   `yaml:"fact"`
}

type keyword struct {
	folded string
	fact   string
}

// Base is a keyword → fact lookup table.
type Base struct {
	keywords []keyword
}

// Builtin returns a Base over the embedded dataset plus extra, where extra
// maps a keyword to a fact. Extra entries win over built-in ones with the
// same keyword.
func Builtin(extra map[string]string) (*Base, error) {
	var entries []Entry
	if err := yaml.Unmarshal(builtinData, &entries); err != nil {
		return nil, fmt.Errorf("knowledge: decode builtin dataset: %w", err)
	}
	for kw, fact := range extra {
		entries = append(entries, Entry{Keywords: []string{kw}, Fact: fact})
	}
	return New(entries), nil
}

// New builds a Base from entries. Later entries override earlier ones that
// share a keyword. Blank keywords and facts are ignored.
func New(entries []Entry) *Base {
	byKeyword := make(map[string]string)
	for _, e := range entries {
		fact := strings.TrimSpace(e.Fact)
		if fact == "" {
			continue
		}
		for _, kw := range e.Keywords {
			if f := strings.Join(textnorm.Words(kw), " "); f != "" {
				byKeyword[f] = fact
			}
		}
	}

	b := &Base{keywords: make([]keyword, 0, len(byKeyword))}
	for f, fact := range byKeyword {
		b.keywords = append(b.keywords, keyword{folded: f, fact: fact})
	}
	// Longest keyword first so "new york" beats "york"; ties alphabetical.
	sort.Slice(b.keywords, func(i, j int) bool {
		a, c := b.keywords[i].folded, b.keywords[j].folded
		if len(a) != len(c) {
			return len(a) > len(c)
		}
		return a < c
	})
	return b
}

// Lookup returns the fact for the first keyword found as a whole word in
// destination, matching case- and accent-insensitively.
func (b *Base) Lookup(destination string) (string, bool) {
	if b == nil {
		return "", false
	}
	words := textnorm.Words(destination)
	if len(words) == 0 {
		return "", false
	}
	haystack := " " + strings.Join(words, " ") + " "
	for _, kw := range b.keywords {
		if strings.Contains(haystack, " "+kw.folded+" ") {
			return kw.fact, true
		}
	}
	return "", false
}

// Len returns the number of distinct keywords.
func (b *Base) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keywords)
}
