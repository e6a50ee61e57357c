package extract

import (
	"github.com/netnav/netnav/internal/event"
)

// Profile is the extraction strategy for one site
type Profile struct {
	Name    string
	HostKey string // substring matched against the page hostname

	BlockSelectors    []string
	FallbackSelectors []string

	TitleSelector       string
	DescriptionSelector string
	DateSelector        string
	TimeSelector        string
	LocationSelector    string

	DefaultTitle       string
	DefaultDescription string
	DefaultLocation    *event.Location
	Layouts            []string
}

// siteLayouts are the date formats chamber calendars are known to use
var siteLayouts = []string{
	"January 2, 2006",
	"01/02/2006",
	"Jan 2, 2006",
	"2006-01-02",
}

var commonFallback = []string{"article", ".card", ".listing-item", ".post"}

// DurhamProfile targets durhamchamber.org
func DurhamProfile() Profile {
	return Profile{
		Name:                "durham",
		HostKey:             "durhamchamber",
		BlockSelectors:      []string{".event-item", ".event-listing", ".event"},
		FallbackSelectors:   commonFallback,
		TitleSelector:       ".event-title, h2, h3, h4",
		DescriptionSelector: ".event-description, .description, p",
		DateSelector:        ".event-date, .date, time",
		TimeSelector:        ".event-time, .time",
		LocationSelector:    ".event-location, .location, .venue",
		DefaultTitle:        "Durham Chamber Event",
		DefaultDescription:  "Networking event hosted by the Greater Durham Chamber of Commerce.",
		DefaultLocation: &event.Location{
			Name:    "Greater Durham Chamber of Commerce",
			Address: "300 W. Morgan Street",
			City:    "Durham",
			State:   "NC",
			Zip:     "27701",
		},
		Layouts: siteLayouts,
	}
}

// GreensboroProfile targets greensborochamber.com
func GreensboroProfile() Profile {
	return Profile{
		Name:                "greensboro",
		HostKey:             "greensborochamber",
		BlockSelectors:      []string{".cal-event", ".event-card", ".event-listing"},
		FallbackSelectors:   commonFallback,
		TitleSelector:       ".event-name, .event-title, h2, h3",
		DescriptionSelector: ".event-summary, .description, p",
		DateSelector:        ".event-date, .date, time",
		TimeSelector:        ".event-time, .time",
		LocationSelector:    ".event-venue, .location",
		DefaultTitle:        "Greensboro Chamber Event",
		DefaultDescription:  "Networking event hosted by the Greensboro Chamber of Commerce.",
		DefaultLocation: &event.Location{
			Name:    "Greensboro Chamber of Commerce",
			Address: "111 W. February One Place",
			City:    "Greensboro",
			State:   "NC",
			Zip:     "27401",
		},
		Layouts: siteLayouts,
	}
}

// CharlotteProfile targets charlottechamber.com
func CharlotteProfile() Profile {
	return Profile{
		Name:                "charlotte",
		HostKey:             "charlottechamber",
		BlockSelectors:      []string{".tribe-events-calendar-list__event", ".event-list-item", ".event"},
		FallbackSelectors:   commonFallback,
		TitleSelector:       ".tribe-events-calendar-list__event-title, .event-title, h2, h3",
		DescriptionSelector: ".tribe-events-calendar-list__event-description, .description, p",
		DateSelector:        ".tribe-event-date-start, .event-date, time",
		TimeSelector:        ".tribe-event-time, .event-time",
		LocationSelector:    ".tribe-events-calendar-list__event-venue, .event-location, .location",
		DefaultTitle:        "Charlotte Chamber Event",
		DefaultDescription:  "Networking event hosted by the Charlotte Regional Business Alliance.",
		DefaultLocation: &event.Location{
			Name:    "Charlotte Regional Business Alliance",
			Address: "330 S. Tryon Street",
			City:    "Charlotte",
			State:   "NC",
			Zip:     "28202",
		},
		Layouts: siteLayouts,
	}
}

// GenericProfile is used for hosts no other profile claims
func GenericProfile() Profile {
	return Profile{
		Name:                "generic",
		BlockSelectors:      []string{".event", ".events-list li", ".event-item", "[itemtype*='schema.org/Event']"},
		FallbackSelectors:   commonFallback,
		TitleSelector:       "[itemprop='name'], .event-title, .title, h2, h3, h4",
		DescriptionSelector: "[itemprop='description'], .description, .summary, p",
		DateSelector:        "[itemprop='startDate'], .event-date, .date, time",
		TimeSelector:        ".event-time, .time",
		LocationSelector:    "[itemprop='location'], .event-location, .location, .venue",
		DefaultTitle:        "Networking Event",
		Layouts:             event.DefaultLayouts,
	}
}

// defaultLocation returns a copy so callers may modify it
func (p Profile) defaultLocation() *event.Location {
	if p.DefaultLocation == nil {
		return nil
	}
	loc := *p.DefaultLocation
	return &loc
}
