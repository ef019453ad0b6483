// Package affiliate models the partner sites whose referral links are
// embedded in offer cards.
//
// A [Provider] carries static display metadata and builds a deep link from a
// parameter bag. Link building is pure string work: no network calls are made.
// Providers are collected once at start-up into an immutable [Registry] that
// is injected wherever offers are built.
package affiliate

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/MrWong99/tripmate/internal/trip"
)

// ErrMissingParam is returned by BuildLink when a required link parameter is
// empty.
var ErrMissingParam = errors.New("affiliate: missing required parameter")

// Params is the input to [Provider.BuildLink].
type Params struct {
	Origin      string
	Destination string
	DepartDate  string
	ReturnDate  string
	Adults      int
}

// values returns the placeholder substitutions for p.
func (p Params) values() map[string]string {
	adults := ""
	if p.Adults > 0 {
		adults = strconv.Itoa(p.Adults)
	}
	return map[string]string{
		"origin":      strings.TrimSpace(p.Origin),
		"destination": strings.TrimSpace(p.Destination),
		"depart":      strings.TrimSpace(p.DepartDate),
		"return":      strings.TrimSpace(p.ReturnDate),
		"adults":      adults,
	}
}

// Meta is a provider's static display metadata.
type Meta struct {
	// ID is a stable slug such as "skyscanner".
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Category    trip.OfferCategory `json:"category" yaml:"category"`
	BrandColor  string             `json:"brandColor,omitempty" yaml:"brand_color"`
	Description string             `json:"description,omitempty" yaml:"description"`
	CTALabel    string             `json:"ctaLabel" yaml:"cta_label"`
	LogoURL     string             `json:"logoUrl,omitempty" yaml:"logo_url"`
}

// Validate reports every missing or invalid field.
func (m Meta) Validate() error {
	var errs []error
	if m.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if m.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if m.CTALabel == "" {
		errs = append(errs, errors.New("cta_label is required"))
	}
	if m.Category == trip.OfferNone || !m.Category.Valid() {
		errs = append(errs, fmt.Errorf("category %q must be one of flight, hotel, activity", m.Category))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("affiliate %q: %w", m.ID, err)
	}
	return nil
}

// Provider is an affiliate partner.
type Provider interface {
	// Meta returns the provider's display metadata.
	Meta() Meta

	// BuildLink returns the referral deep link for p.
	BuildLink(p Params) (string, error)
}

// TemplateSpec describes a [Template] provider.
type TemplateSpec struct {
	Meta Meta

	// BaseURL is the link prefix. {placeholders} in the path are replaced
	// with path-escaped parameter values.
	BaseURL string

	// Query maps query keys to value templates such as "{destination}".
	// Keys whose expanded value is empty are omitted.
	Query map[string]string

	// AffiliateID is substituted for {affiliate_id}.
	AffiliateID string

	// Required lists parameters that must be non-empty. Defaults to
	// "destination".
	Required []string
}

// Template is a [Provider] that builds links by placeholder substitution.
// Recognised placeholders are {origin}, {destination}, {depart}, {return},
// {adults} and {affiliate_id}.
type Template struct {
	meta        Meta
	baseURL     string
	query       map[string]string
	affiliateID string
	required    []string
}

var _ Provider = (*Template)(nil)

// NewTemplate creates a Template from spec. The spec is copied.
func NewTemplate(spec TemplateSpec) *Template {
	q := make(map[string]string, len(spec.Query))
	for k, v := range spec.Query {
		q[k] = v
	}
	req := spec.Required
	if req == nil {
		req = []string{"destination"}
	}
	return &Template{
		meta:        spec.Meta,
		baseURL:     spec.BaseURL,
		query:       q,
		affiliateID: spec.AffiliateID,
		required:    append([]string(nil), req...),
	}
}

// Meta implements [Provider].
func (t *Template) Meta() Meta { return t.meta }

// BuildLink implements [Provider].
func (t *Template) BuildLink(p Params) (string, error) {
	if t.baseURL == "" {
		return "", fmt.Errorf("affiliate %q: base url is empty", t.meta.ID)
	}
	vals := p.values()
	vals["affiliate_id"] = t.affiliateID
	for _, name := range t.required {
		if vals[name] == "" {
			return "", fmt.Errorf("affiliate %q: %w %q", t.meta.ID, ErrMissingParam, name)
		}
	}

	link := expand(t.baseURL, vals, url.PathEscape)
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("affiliate %q: parse link: %w", t.meta.ID, err)
	}

	q := u.Query()
	for key, tmpl := range t.query {
		if v := expand(tmpl, vals, nil); v != "" {
			q.Set(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// expand replaces {name} placeholders in s. When escape is non-nil it is
// applied to every substituted value.
func expand(s string, vals map[string]string, escape func(string) string) string {
	pairs := make([]string, 0, len(vals)*2)
	for k, v := range vals {
		if escape != nil {
			v = escape(v)
		}
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
