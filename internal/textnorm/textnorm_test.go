package textnorm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Bucureşti", "bucuresti"},
		{"  BUCUREȘTI ", "bucuresti"},
		{"São  Paulo", "sao paulo"},
		{"Zürich", "zurich"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsWord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		haystack string
		needle   string
		want     bool
	}{
		{"I'd love to see Paris!", "paris", true},
		{"Weekend in São Paulo, please", "sao paulo", true},
		{"Parisian cafes", "paris", false},
		{"hello", "", false},
		{"Romania is nice", "roma", false},
	}
	for _, tt := range tests {
		if got := ContainsWord(tt.haystack, tt.needle); got != tt.want {
			t.Errorf("ContainsWord(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
		}
	}
}

func TestWords(t *testing.T) {
	t.Parallel()

	got := Words("Hi, Zbor -> Londra!")
	want := []string{"hi", "zbor", "londra"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Words mismatch (-want +got):\n%s", diff)
	}
}
