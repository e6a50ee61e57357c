package normalize

import (
	"testing"
	"time"

	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/extract"
)

func TestNormalize(t *testing.T) {
	n := New(extract.NewRegistry(extract.DefaultOptions()))
	start := time.Date(2025, 3, 15, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		sourceURL string
		in        event.ScrapedEvent
		check     func(t *testing.T, ne NormalizedEvent)
	}{
		{
			name:      "fills durham default location",
			sourceURL: "https://durhamchamber.org/events",
			in:        event.ScrapedEvent{Title: "  Business   After Hours ", Start: start, End: start.Add(time.Hour)},
			check: func(t *testing.T, ne NormalizedEvent) {
				if ne.Title != "Business After Hours" {
					t.Errorf("Title = %q", ne.Title)
				}
				if ne.Location == nil || ne.Location.Address != "300 W. Morgan Street" {
					t.Errorf("Location = %+v", ne.Location)
				}
				if ne.SourceID != "business-after-hours-2025-03-15t17-30-00-000z" {
					t.Errorf("SourceID = %q", ne.SourceID)
				}
				if !ne.End.Equal(start.Add(time.Hour)) {
					t.Errorf("End = %v, want explicit end kept", ne.End)
				}
				if ne.EventType != "NETWORKING" || len(ne.Industries) != 2 {
					t.Errorf("EventType, Industries = %q, %v", ne.EventType, ne.Industries)
				}
			},
		},
		{
			name:      "keeps scraped location",
			sourceURL: "https://charlottechamber.com/events",
			in: event.ScrapedEvent{
				Title:    "Power Lunch",
				Start:    start,
				Location: &event.Location{Name: "Foundry", Address: "1 Main St", City: "Charlotte", State: "nc"},
			},
			check: func(t *testing.T, ne NormalizedEvent) {
				if ne.Location.Address != "1 Main St" || ne.Location.State != "NC" {
					t.Errorf("Location = %+v", ne.Location)
				}
				if !ne.End.Equal(start.Add(2 * time.Hour)) {
					t.Errorf("End = %v, want start + 2h", ne.End)
				}
			},
		},
		{
			name:      "generic site without location",
			sourceURL: "https://example.com/events",
			in:        event.ScrapedEvent{Title: "Meetup", Start: start},
			check: func(t *testing.T, ne NormalizedEvent) {
				if ne.Location != nil {
					t.Errorf("Location = %+v, want nil", ne.Location)
				}
			},
		},
		{
			name:      "zero start keeps end zero",
			sourceURL: "https://example.com/events",
			in:        event.ScrapedEvent{Title: "TBD Mixer", End: start},
			check: func(t *testing.T, ne NormalizedEvent) {
				if !ne.Start.IsZero() || !ne.End.IsZero() {
					t.Errorf("Start, End = %v, %v; want zero", ne.Start, ne.End)
				}
				if ne.SourceID != "tbd-mixer-" {
					t.Errorf("SourceID = %q, want tbd-mixer-", ne.SourceID)
				}
			},
		},
		{
			name:      "empty title takes profile default",
			sourceURL: "https://greensborochamber.com",
			in:        event.ScrapedEvent{Start: start},
			check: func(t *testing.T, ne NormalizedEvent) {
				if ne.Title != "Greensboro Chamber Event" {
					t.Errorf("Title = %q", ne.Title)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ne := n.Normalize(tt.sourceURL, tt.in)
			if ne.SourceURL != tt.sourceURL {
				t.Errorf("SourceURL = %q, want %q", ne.SourceURL, tt.sourceURL)
			}
			tt.check(t, ne)
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := New(extract.NewRegistry(extract.DefaultOptions()))
	se := event.ScrapedEvent{Title: "Morning Coffee Connect", Start: time.Date(2025, 3, 20, 4, 0, 0, 0, time.UTC)}

	a := n.Normalize("https://durhamchamber.org/events", se)
	b := n.Normalize("https://durhamchamber.org/events", se)
	if a.SourceID != b.SourceID {
		t.Errorf("SourceID differs across calls: %q vs %q", a.SourceID, b.SourceID)
	}

	// Mutating one result's location must not leak into the profile default
	a.Location.Name = "changed"
	if b.Location.Name == "changed" {
		t.Error("normalized events share a Location")
	}
}

func TestNormalizeDefaultedDateKeepsIdentity(t *testing.T) {
	n := New(extract.NewRegistry(extract.DefaultOptions()))
	first := event.ScrapedEvent{Title: "Leadership Luncheon", Start: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), DateDefaulted: true}
	second := first
	second.Start = first.Start.Add(24 * time.Hour)

	a := n.Normalize("https://durhamchamber.org/events", first)
	b := n.Normalize("https://durhamchamber.org/events", second)
	if a.SourceID != "leadership-luncheon-" || b.SourceID != a.SourceID {
		t.Errorf("SourceID = %q, %q, want both %q", a.SourceID, b.SourceID, "leadership-luncheon-")
	}
	if !b.Start.Equal(second.Start) {
		t.Errorf("Start = %v, want the defaulted start kept on the event", b.Start)
	}
}

func TestEvent(t *testing.T) {
	ne := NormalizedEvent{Title: "Mixer", Industries: []string{"BUSINESS"}, SourceURL: "u", SourceID: "mixer-"}
	e := ne.Event("v1")
	if e.VenueID != "v1" || e.Title != "Mixer" || e.SourceID != "mixer-" {
		t.Errorf("Event() = %+v", e)
	}
	e.Industries[0] = "x"
	if ne.Industries[0] != "BUSINESS" {
		t.Error("Event() shares the industries slice")
	}
}
