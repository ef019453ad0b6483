package affiliate

import "github.com/MrWong99/tripmate/internal/trip"

// Builtin returns the default partner set: two providers per category.
// affiliateIDs maps provider IDs to partner identifiers; missing entries
// leave the tracking parameter out of the link.
func Builtin(affiliateIDs map[string]string) []Provider {
	specs := []TemplateSpec{
		{
			Meta: Meta{
				ID:          "skyscanner",
				Name:        "Skyscanner",
				Category:    trip.OfferFlight,
				BrandColor:  "#0770E3",
				Description: "Compare flight prices across hundreds of airlines and travel agents.",
				CTALabel:    "Search flights",
				LogoURL:     "https://www.skyscanner.net/images/websites/220x80.png",
			},
			BaseURL: "https://www.skyscanner.net/g/referrals/v1/flights/day-view",
			Query: map[string]string{
				"origin":       "{origin}",
				"destination":  "{destination}",
				"outboundDate": "{depart}",
				"inboundDate":  "{return}",
				"adultsv2":     "{adults}",
				"associateId":  "{affiliate_id}",
			},
		},
		{
			Meta: Meta{
				ID:          "kiwi",
				Name:        "Kiwi.com",
				Category:    trip.OfferFlight,
				BrandColor:  "#00A991",
				Description: "Virtual interlining combines carriers that don't usually cooperate.",
				CTALabel:    "Find cheap flights",
				LogoURL:     "https://www.kiwi.com/images/logos/kiwicom.png",
			},
			BaseURL: "https://www.kiwi.com/deep",
			Query: map[string]string{
				"from":      "{origin}",
				"to":        "{destination}",
				"departure": "{depart}",
				"return":    "{return}",
				"adults":    "{adults}",
				"affilid":   "{affiliate_id}",
			},
		},
		{
			Meta: Meta{
				ID:          "booking",
				Name:        "Booking.com",
				Category:    trip.OfferHotel,
				BrandColor:  "#003580",
				Description: "Hotels, apartments and guesthouses with free cancellation on most rooms.",
				CTALabel:    "See stays",
				LogoURL:     "https://cf.bstatic.com/static/img/favicon/favicon-32x32.png",
			},
			BaseURL: "https://www.booking.com/searchresults.html",
			Query: map[string]string{
				"ss":           "{destination}",
				"checkin":      "{depart}",
				"checkout":     "{return}",
				"group_adults": "{adults}",
				"aid":          "{affiliate_id}",
			},
		},
		{
			Meta: Meta{
				ID:          "hotelscom",
				Name:        "Hotels.com",
				Category:    trip.OfferHotel,
				BrandColor:  "#D32F2F",
				Description: "Collect stamps and earn reward nights on every booking.",
				CTALabel:    "Browse hotels",
				LogoURL:     "https://www.hotels.com/favicon.ico",
			},
			BaseURL: "https://www.hotels.com/Hotel-Search",
			Query: map[string]string{
				"destination": "{destination}",
				"startDate":   "{depart}",
				"endDate":     "{return}",
				"adults":      "{adults}",
				"affcid":      "{affiliate_id}",
			},
		},
		{
			Meta: Meta{
				ID:          "getyourguide",
				Name:        "GetYourGuide",
				Category:    trip.OfferActivity,
				BrandColor:  "#FF5533",
				Description: "Tours, tickets and experiences with instant confirmation.",
				CTALabel:    "Explore activities",
				LogoURL:     "https://www.getyourguide.com/favicon.ico",
			},
			BaseURL: "https://www.getyourguide.com/s/",
			Query: map[string]string{
				"q":          "{destination}",
				"date_from":  "{depart}",
				"date_to":    "{return}",
				"partner_id": "{affiliate_id}",
			},
		},
		{
			Meta: Meta{
				ID:          "viator",
				Name:        "Viator",
				Category:    trip.OfferActivity,
				BrandColor:  "#00AA6C",
				Description: "Skip-the-line tickets and local guides, bookable up to the last minute.",
				CTALabel:    "Book experiences",
				LogoURL:     "https://www.viator.com/favicon.ico",
			},
			BaseURL: "https://www.viator.com/searchResults/all",
			Query: map[string]string{
				"text": "{destination}",
				"pid":  "{affiliate_id}",
			},
		},
	}

	out := make([]Provider, 0, len(specs))
	for _, s := range specs {
		s.AffiliateID = affiliateIDs[s.Meta.ID]
		out = append(out, NewTemplate(s))
	}
	return out
}
