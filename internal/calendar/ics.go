// Package calendar renders stored events as iCalendar (.ics) files.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/netnav/netnav/internal/event"
)

// GenerateICS generates an iCalendar file for an event. venue may be nil.
// now stamps the entry and dates events that have no start time.
func GenerateICS(evt *event.Event, venue *event.Venue, now time.Time) string {
	var ics strings.Builder
	writeHeader(&ics, "")
	writeEvent(&ics, evt, venue, now)
	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

// GenerateBulkICS generates one calendar holding every event. venues maps
// venue IDs to venues and may be nil. An empty list yields "".
func GenerateBulkICS(events []*event.Event, venues map[string]*event.Venue, calendarName string, now time.Time) string {
	if len(events) == 0 {
		return ""
	}

	var ics strings.Builder
	writeHeader(&ics, calendarName)
	for _, evt := range events {
		writeEvent(&ics, evt, venues[evt.VenueID], now)
	}
	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeHeader(ics *strings.Builder, calendarName string) {
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//NetNav//netnav//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if calendarName != "" {
		writeLine(ics, "X-WR-CALNAME", escapeICS(calendarName))
	}
}

func writeEvent(ics *strings.Builder, evt *event.Event, venue *event.Venue, now time.Time) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	// UID - row IDs survive re-scrapes, so calendar clients update in place
	writeLine(ics, "UID", evt.ID+"@netnav")
	writeLine(ics, "DTSTAMP", formatICSTime(now))

	if evt.Start.IsZero() {
		// No known start: publish as an all-day entry one week out
		day := now.AddDate(0, 0, 7)
		writeLine(ics, "DTSTART;VALUE=DATE", day.Format("20060102"))
		writeLine(ics, "DTEND;VALUE=DATE", day.AddDate(0, 0, 1).Format("20060102"))
	} else {
		end := evt.End
		if !end.After(evt.Start) {
			end = evt.Start.Add(event.DefaultDuration)
		}
		writeLine(ics, "DTSTART", formatICSTime(evt.Start))
		writeLine(ics, "DTEND", formatICSTime(end))
	}

	writeLine(ics, "SUMMARY", escapeICS(evt.Title))

	description := evt.Description
	if evt.SourceURL != "" {
		if description != "" {
			description += "\n\n"
		}
		description += "Details: " + evt.SourceURL
	}
	if description != "" {
		writeLine(ics, "DESCRIPTION", escapeICS(description))
	}

	if venue != nil {
		writeLine(ics, "LOCATION", escapeICS(venueText(venue)))
		writeLine(ics, "GEO", fmt.Sprintf("%.4f;%.4f", venue.Latitude, venue.Longitude))
	}

	if evt.SourceURL != "" {
		writeLine(ics, "URL", evt.SourceURL)
	}

	categories := make([]string, 0, len(evt.Industries)+1)
	for _, c := range append([]string{evt.EventType}, evt.Industries...) {
		if c != "" {
			categories = append(categories, escapeICS(c))
		}
	}
	if len(categories) > 0 {
		writeLine(ics, "CATEGORIES", strings.Join(categories, ","))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

func venueText(v *event.Venue) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{v.Name, v.Address, v.City, strings.TrimSpace(v.State + " " + v.Zip)} {
		if p != "" && (len(parts) == 0 || parts[len(parts)-1] != p) {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// writeLine writes a content line, folded at 75 octets as RFC 5545 requires
func writeLine(b *strings.Builder, name, value string) {
	line := name + ":" + value
	limit := 75
	for len(line) > limit {
		cut := limit
		// Do not split a UTF-8 sequence
		for cut > 0 && line[cut]&0xC0 == 0x80 {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// Continuation lines start with a space
		limit = 74
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
