package knowledge

import (
	"strings"
	"testing"
)

func TestBuiltin_Lookup(t *testing.T) {
	t.Parallel()

	kb, err := Builtin(nil)
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if kb.Len() == 0 {
		t.Fatal("builtin dataset is empty")
	}

	tests := []struct {
		destination string
		wantOK      bool
		wantSubstr  string
	}{
		{"Paris", true, "Louvre"},
		{"paris, france", true, "Louvre"},
		{"BUCUREȘTI", true, "Palace of the Parliament"},
		{"New York City", true, "subway"},
		{"Romania", false, ""},
		{"Atlantis", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		fact, ok := kb.Lookup(tt.destination)
		if ok != tt.wantOK {
			t.Errorf("Lookup(%q) ok = %v, want %v", tt.destination, ok, tt.wantOK)
			continue
		}
		if !strings.Contains(fact, tt.wantSubstr) {
			t.Errorf("Lookup(%q) = %q, want it to contain %q", tt.destination, fact, tt.wantSubstr)
		}
	}
}

func TestBuiltin_ExtraOverrides(t *testing.T) {
	t.Parallel()

	kb, err := Builtin(map[string]string{
		"Paris":     "Custom Paris fact.",
		"Reykjavík": "Northern lights from September to March.",
	})
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if fact, _ := kb.Lookup("Paris"); fact != "Custom Paris fact." {
		t.Errorf("override not applied: %q", fact)
	}
	if fact, ok := kb.Lookup("reykjavik"); !ok || !strings.Contains(fact, "Northern lights") {
		t.Errorf("extra keyword not found: %q, %v", fact, ok)
	}
}

func TestNew_LongestKeywordWins(t *testing.T) {
	t.Parallel()

	kb := New([]Entry{
		{Keywords: []string{"york"}, Fact: "York has a medieval wall."},
		{Keywords: []string{"new york"}, Fact: "NYC never sleeps."},
		{Keywords: []string{""}, Fact: "ignored"},
		{Keywords: []string{"blank"}, Fact: "  "},
	})
	if kb.Len() != 2 {
		t.Errorf("Len = %d, want 2", kb.Len())
	}
	if fact, _ := kb.Lookup("New York"); fact != "NYC never sleeps." {
		t.Errorf("Lookup(New York) = %q", fact)
	}
	if fact, _ := kb.Lookup("York, England"); fact != "York has a medieval wall." {
		t.Errorf("Lookup(York) = %q", fact)
	}
}

func TestNilBase(t *testing.T) {
	t.Parallel()

	var kb *Base
	if _, ok := kb.Lookup("Paris"); ok {
		t.Error("nil base should not match")
	}
}
