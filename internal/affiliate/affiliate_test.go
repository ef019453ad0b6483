package affiliate

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/tripmate/internal/trip"
)

func TestTemplate_BuildLink(t *testing.T) {
	t.Parallel()

	tpl := NewTemplate(TemplateSpec{
		Meta:        Meta{ID: "demo", Name: "Demo", Category: trip.OfferHotel, CTALabel: "Go"},
		BaseURL:     "https://example.com/stays/{destination}",
		Query:       map[string]string{"in": "{depart}", "out": "{return}", "n": "{adults}", "aid": "{affiliate_id}"},
		AffiliateID: "partner-7",
	})

	link, err := tpl.BuildLink(Params{Destination: "São Paulo", DepartDate: "2026-06-01", Adults: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	if u.Path != "/stays/São Paulo" {
		t.Errorf("path = %q", u.Path)
	}
	q := u.Query()
	want := url.Values{"in": {"2026-06-01"}, "n": {"2"}, "aid": {"partner-7"}}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplate_MissingRequired(t *testing.T) {
	t.Parallel()

	tpl := NewTemplate(TemplateSpec{
		Meta:    Meta{ID: "demo", Name: "Demo", Category: trip.OfferFlight, CTALabel: "Go"},
		BaseURL: "https://example.com/flights",
		Query:   map[string]string{"to": "{destination}"},
	})
	_, err := tpl.BuildLink(Params{})
	if !errors.Is(err, ErrMissingParam) {
		t.Fatalf("expected ErrMissingParam, got %v", err)
	}
}

func TestTemplate_EmptyBaseURL(t *testing.T) {
	t.Parallel()

	tpl := NewTemplate(TemplateSpec{Meta: Meta{ID: "broken"}})
	if _, err := tpl.BuildLink(Params{Destination: "Rome"}); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestMeta_Validate(t *testing.T) {
	t.Parallel()

	if err := (Meta{ID: "ok", Name: "OK", Category: trip.OfferActivity, CTALabel: "Go"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := (Meta{ID: "bad", Category: trip.OfferNone}).Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"name is required", "cta_label is required", "category"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestBuiltin(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(Builtin(map[string]string{"booking": "123456"})...)
	if err := reg.Validate(); err != nil {
		t.Fatalf("builtin registry invalid: %v", err)
	}
	if diff := cmp.Diff(trip.Categories, reg.Categories()); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}

	params := Params{Origin: "Berlin", Destination: "Paris", DepartDate: "2026-06-01", ReturnDate: "2026-06-10", Adults: 2}
	for _, p := range reg.Providers() {
		link, err := p.BuildLink(params)
		if err != nil {
			t.Errorf("%s: BuildLink: %v", p.Meta().ID, err)
			continue
		}
		if !strings.HasPrefix(link, "https://") {
			t.Errorf("%s: link %q is not https", p.Meta().ID, link)
		}
		if !strings.Contains(link, "Paris") {
			t.Errorf("%s: link %q does not carry the destination", p.Meta().ID, link)
		}
	}

	booking := reg.ByCategory(trip.OfferHotel)[0]
	link, _ := booking.BuildLink(params)
	if !strings.Contains(link, "aid=123456") {
		t.Errorf("booking link %q missing affiliate id", link)
	}
}

func TestRegistry_ByCategoryIsACopy(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(Builtin(nil)...)
	flights := reg.ByCategory(trip.OfferFlight)
	if len(flights) != 2 {
		t.Fatalf("flight providers = %d, want 2", len(flights))
	}
	flights[0] = nil
	if reg.ByCategory(trip.OfferFlight)[0] == nil {
		t.Error("mutating the returned slice changed the registry")
	}
	if got := reg.ByCategory(trip.OfferNone); len(got) != 0 {
		t.Errorf("OfferNone providers = %d, want 0", len(got))
	}
}

func TestRegistry_ValidateDuplicates(t *testing.T) {
	t.Parallel()

	meta := Meta{ID: "dup", Name: "Dup", Category: trip.OfferFlight, CTALabel: "Go"}
	reg := NewRegistry(
		NewTemplate(TemplateSpec{Meta: meta, BaseURL: "https://a.example"}),
		NewTemplate(TemplateSpec{Meta: meta, BaseURL: "https://b.example"}),
	)
	err := reg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate provider id dup") {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestNilRegistry(t *testing.T) {
	t.Parallel()

	var reg *Registry
	if reg.ByCategory(trip.OfferFlight) != nil || reg.Providers() != nil || reg.Categories() != nil {
		t.Error("nil registry should return nil slices")
	}
}
