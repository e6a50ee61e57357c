// Package normalize prepares scraped events for storage: it trims text,
// fills in the site's default location, repairs the end time and derives the
// deterministic source ID.
package normalize

import (
	"strings"
	"time"

	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/extract"
)

// NormalizedEvent is a scraped event ready to be upserted
type NormalizedEvent struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Location    *event.Location
	Industries  []string
	EventType   string
	SourceURL   string
	SourceID    string
	Placeholder bool
}

// Normalizer looks up per-site defaults in an extract registry
type Normalizer struct {
	registry *extract.Registry
}

// New creates a Normalizer
func New(registry *extract.Registry) *Normalizer {
	return &Normalizer{registry: registry}
}

// Normalize converts a scraped event found on sourceURL
func (n *Normalizer) Normalize(sourceURL string, se event.ScrapedEvent) NormalizedEvent {
	profile := n.registry.ProfileFor(sourceURL)

	ne := NormalizedEvent{
		Title:       clean(se.Title),
		Description: strings.TrimSpace(se.Description),
		Start:       se.Start,
		End:         se.End,
		Location:    cleanLocation(se.Location),
		Industries:  se.Industries,
		EventType:   se.EventType,
		SourceURL:   sourceURL,
		Placeholder: se.Placeholder,
	}

	if ne.Title == "" {
		ne.Title = profile.DefaultTitle
	}
	if ne.Location.IsEmpty() && profile.DefaultLocation != nil {
		loc := *profile.DefaultLocation
		ne.Location = &loc
	}
	if len(ne.Industries) == 0 {
		ne.Industries = event.DefaultIndustries()
	}
	if ne.EventType == "" {
		ne.EventType = event.DefaultEventType
	}

	switch {
	case ne.Start.IsZero():
		ne.End = time.Time{}
	case ne.End.IsZero() || ne.End.Before(ne.Start):
		ne.End = ne.Start.Add(event.DefaultDuration)
	}

	start := ne.Start
	if se.DateDefaulted {
		start = time.Time{}
	}
	ne.SourceID = event.SourceID(ne.Title, start)
	return ne
}

// NormalizeAll applies Normalize to every event
func (n *Normalizer) NormalizeAll(sourceURL string, events []event.ScrapedEvent) []NormalizedEvent {
	out := make([]NormalizedEvent, 0, len(events))
	for _, se := range events {
		out = append(out, n.Normalize(sourceURL, se))
	}
	return out
}

// Event builds the stored form of the event
func (ne NormalizedEvent) Event(venueID string) *event.Event {
	return &event.Event{
		Title:       ne.Title,
		Description: ne.Description,
		Start:       ne.Start,
		End:         ne.End,
		VenueID:     venueID,
		Industries:  append([]string(nil), ne.Industries...),
		EventType:   ne.EventType,
		SourceURL:   ne.SourceURL,
		SourceID:    ne.SourceID,
	}
}

func cleanLocation(loc *event.Location) *event.Location {
	if loc == nil {
		return nil
	}
	return &event.Location{
		Name:    clean(loc.Name),
		Address: clean(loc.Address),
		City:    clean(loc.City),
		State:   strings.ToUpper(clean(loc.State)),
		Zip:     clean(loc.Zip),
	}
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
