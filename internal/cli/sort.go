package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/netnav/netnav/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
	SortByCity  SortOrder = "city"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case SortByDate, SortByTitle, SortByCity:
		return order, nil
	}
	return "", fmt.Errorf("invalid sort: %s (must be 'date', 'title' or 'city')", s)
}

// sortEvents sorts a slice of events based on the specified sort order.
// venues resolves VenueID for city ordering and may be nil.
func sortEvents(events []*event.Event, sortOrder SortOrder, venues map[string]*event.Venue) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByCity:
		sort.SliceStable(events, func(i, j int) bool {
			ci, cj := cityOf(events[i], venues), cityOf(events[j], venues)
			if ci != cj {
				// Events without a venue go last
				if ci == "" || cj == "" {
					return cj == ""
				}
				return ci < cj
			}
			// If cities are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate compares two events by their start time
// Returns true if event i should come before event j
func compareByDate(i, j *event.Event) bool {
	// If both dates are known, compare them
	if !i.Start.IsZero() && !j.Start.IsZero() {
		if !i.Start.Equal(j.Start) {
			return i.Start.Before(j.Start)
		}
		return strings.ToLower(i.Title) < strings.ToLower(j.Title)
	}

	// If only one date is known, put the known one first
	if !i.Start.IsZero() {
		return true
	}
	if !j.Start.IsZero() {
		return false
	}

	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}

func cityOf(e *event.Event, venues map[string]*event.Venue) string {
	if v := venues[e.VenueID]; v != nil {
		return strings.ToLower(v.City)
	}
	return ""
}
