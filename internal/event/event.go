package event

import (
	"regexp"
	"strings"
	"time"
)

// DefaultEventType is the tag given to every extracted event.
const DefaultEventType = "NETWORKING"

// DefaultIndustries returns the industry tags given to every extracted event.
// A fresh slice is returned so callers may modify it.
func DefaultIndustries() []string {
	return []string{"BUSINESS", "PROFESSIONAL_SERVICES"}
}

// Location is the loosely structured place text found next to an event
type Location struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// IsEmpty reports whether no address information is present
func (l *Location) IsEmpty() bool {
	return l == nil || (l.Address == "" && l.City == "" && l.State == "")
}

// ScrapedEvent is a transient record produced by an extractor
type ScrapedEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    *Location `json:"location,omitempty"`
	Industries  []string  `json:"industries"`
	EventType   string    `json:"eventType"`
	Placeholder bool      `json:"placeholder,omitempty"` // synthesized, not found on the page
	// DateDefaulted marks a Start filled in because the date text did not parse
	DateDefaulted bool `json:"dateDefaulted,omitempty"`
}

// IdentityStart is the start time that goes into the event's SourceID.
// A defaulted start changes on every scrape, so it is left out.
func (e ScrapedEvent) IdentityStart() time.Time {
	if e.DateDefaulted {
		return time.Time{}
	}
	return e.Start
}

// Venue is a physical place hosting zero or more events.
// Identity is (Address, City, State).
type Venue struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Zip       string    `json:"zip"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event is a persisted networking event, unique by (SourceURL, SourceID)
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	VenueID     string    `json:"venueId,omitempty"`
	Industries  []string  `json:"industries"`
	EventType   string    `json:"eventType"`
	SourceURL   string    `json:"sourceUrl"`
	SourceID    string    `json:"sourceId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsUpcoming reports whether the event starts after now.
// Events without a start time are treated as upcoming.
func (e *Event) IsUpcoming(now time.Time) bool {
	if e.Start.IsZero() {
		return true
	}
	return e.Start.After(now)
}

// EventSource is a page that gets scraped for events
type EventSource struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	Name         string        `json:"name"`
	SourceType   string        `json:"sourceType"`
	ScrapeConfig *ScrapeConfig `json:"scrapeConfig,omitempty"`
	Active       bool          `json:"active"`
	LastScraped  *time.Time    `json:"lastScraped,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// SourceTypeWebsite is the type given to sources created implicitly by a scrape
const SourceTypeWebsite = "website"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// isoLayout matches the millisecond ISO-8601 form used for source IDs
const isoLayout = "2006-01-02T15:04:05.000Z"

// SourceID derives the deterministic per-source identifier of an event:
// lowercase(title + "-" + isoStart) with every run of non-alphanumeric
// characters collapsed to a single hyphen. A zero start contributes nothing
// after the separator.
func SourceID(title string, start time.Time) string {
	iso := ""
	if !start.IsZero() {
		iso = start.UTC().Format(isoLayout)
	}
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(title+"-"+iso), "-")
}
