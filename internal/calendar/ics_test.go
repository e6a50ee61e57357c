package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/netnav/netnav/internal/event"
)

var stamp = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testEvent() *event.Event {
	start := time.Date(2025, 3, 15, 22, 30, 0, 0, time.UTC)
	return &event.Event{
		ID:          "3f1c9a2e-event",
		Title:       "Business After Hours",
		Description: "Meet local professionals.",
		Start:       start,
		End:         start.Add(2 * time.Hour),
		VenueID:     "venue-1",
		Industries:  event.DefaultIndustries(),
		EventType:   event.DefaultEventType,
		SourceURL:   "https://durhamchamber.org/events",
		SourceID:    "business-after-hours-2025-03-15t22-30-00-000z",
	}
}

func testVenue() *event.Venue {
	return &event.Venue{
		ID:        "venue-1",
		Name:      "Greater Durham Chamber of Commerce",
		Address:   "300 W. Morgan Street",
		City:      "Durham",
		State:     "NC",
		Zip:       "27701",
		Latitude:  35.994,
		Longitude: -78.8986,
	}
}

func TestGenerateICS(t *testing.T) {
	ics := GenerateICS(testEvent(), testVenue(), stamp)

	// Check required ICS fields
	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//NetNav//netnav//EN",
		"BEGIN:VEVENT",
		"UID:3f1c9a2e-event@netnav",
		"DTSTAMP:20250310T120000Z",
		"DTSTART:20250315T223000Z",
		"DTEND:20250316T003000Z",
		"SUMMARY:Business After Hours",
		"DESCRIPTION:Meet local professionals.\\n\\nDetails: https://durhamchamber.org/events",
		"LOCATION:Greater Durham Chamber of Commerce\\, 300 W. Morgan Street\\, Durham\\, NC 27701",
		"GEO:35.9940;-78.8986",
		"URL:https://durhamchamber.org/events",
		"CATEGORIES:NETWORKING,BUSINESS,PROFESSIONAL_SERVICES",
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	unfolded := strings.ReplaceAll(ics, "\r\n ", "")
	for _, field := range requiredFields {
		if !strings.Contains(unfolded, field) {
			t.Errorf("ICS missing required field: %s", field)
		}
	}

	// Check that lines end with \r\n
	if !strings.Contains(ics, "\r\n") {
		t.Error("ICS should use \\r\\n line endings")
	}
}

func TestGenerateICS_NoStart(t *testing.T) {
	evt := testEvent()
	evt.Start = time.Time{}
	evt.End = time.Time{}

	ics := GenerateICS(evt, nil, stamp)

	if !strings.Contains(ics, "DTSTART;VALUE=DATE:20250317") {
		t.Error("Should include an all-day DTSTART one week out")
	}
	if !strings.Contains(ics, "DTEND;VALUE=DATE:20250318") {
		t.Error("Should include an all-day DTEND")
	}
	if strings.Contains(ics, "LOCATION:") {
		t.Error("Should not include LOCATION without a venue")
	}
}

func TestGenerateICS_MissingEnd(t *testing.T) {
	evt := testEvent()
	evt.End = time.Time{}

	ics := GenerateICS(evt, nil, stamp)
	if !strings.Contains(ics, "DTEND:20250316T003000Z") {
		t.Error("Missing end should default to start + 2h")
	}
}

func TestGenerateICS_SpecialCharacters(t *testing.T) {
	evt := testEvent()
	evt.Title = "Test Event; With, Special\\Characters\nAnd Newlines"

	ics := GenerateICS(evt, nil, stamp)

	// Check that special characters are escaped
	if strings.Contains(ics, "SUMMARY:Test Event; With, Special\\Characters\nAnd Newlines") {
		t.Error("Special characters should be escaped in SUMMARY")
	}

	// Should have escaped versions
	if !strings.Contains(ics, "\\;") || !strings.Contains(ics, "\\,") || !strings.Contains(ics, "\\n") {
		t.Error("Special characters should be escaped")
	}
}

func TestGenerateICS_FoldsLongLines(t *testing.T) {
	evt := testEvent()
	evt.Description = strings.Repeat("Networking über alles. ", 20)

	ics := GenerateICS(evt, nil, stamp)
	for _, line := range strings.Split(ics, "\r\n") {
		if len(line) > 75 {
			t.Errorf("line longer than 75 octets: %q", line)
		}
	}
}

func TestGenerateBulkICS(t *testing.T) {
	events := []*event.Event{testEvent(), testEvent(), testEvent()}
	for i, id := range []string{"event1", "event2", "event3"} {
		events[i].ID = id
	}
	venues := map[string]*event.Venue{"venue-1": testVenue()}

	ics := GenerateBulkICS(events, venues, "NetNav - Durham", stamp)

	// Check calendar header
	if !strings.Contains(ics, "BEGIN:VCALENDAR") {
		t.Error("Missing calendar BEGIN")
	}
	if !strings.Contains(ics, "END:VCALENDAR") {
		t.Error("Missing calendar END")
	}
	if strings.Count(ics, "BEGIN:VCALENDAR") != 1 {
		t.Error("Bulk calendar should have exactly one VCALENDAR")
	}

	// Check calendar name
	if !strings.Contains(ics, "X-WR-CALNAME:NetNav - Durham") {
		t.Error("Missing calendar name")
	}

	// Count VEVENT entries (should be 3)
	beginCount := strings.Count(ics, "BEGIN:VEVENT")
	endCount := strings.Count(ics, "END:VEVENT")

	if beginCount != 3 {
		t.Errorf("Expected 3 BEGIN:VEVENT, got %d", beginCount)
	}
	if endCount != 3 {
		t.Errorf("Expected 3 END:VEVENT, got %d", endCount)
	}
	if strings.Count(ics, "GEO:") != 3 {
		t.Error("Every event should carry its venue GEO")
	}

	// Check that all event UIDs are present
	for _, evt := range events {
		uid := "UID:" + evt.ID + "@netnav"
		if !strings.Contains(ics, uid) {
			t.Errorf("Missing UID for event: %s", evt.ID)
		}
	}
}

func TestGenerateBulkICS_EmptyEvents(t *testing.T) {
	ics := GenerateBulkICS([]*event.Event{}, nil, "Test Calendar", stamp)

	if ics != "" {
		t.Error("Empty events array should return empty string")
	}
}

func TestGenerateBulkICS_NoCalendarName(t *testing.T) {
	ics := GenerateBulkICS([]*event.Event{testEvent()}, nil, "", stamp)

	// Should generate ICS without calendar name
	if !strings.Contains(ics, "BEGIN:VCALENDAR") {
		t.Error("Should generate ICS even without calendar name")
	}

	// Should not have X-WR-CALNAME if name is empty
	if strings.Contains(ics, "X-WR-CALNAME:") {
		t.Error("Should not include X-WR-CALNAME when name is empty")
	}
}

func TestFormatICSTime(t *testing.T) {
	// Test time formatting
	testTime := time.Date(2026, 3, 15, 14, 30, 0, 0, time.FixedZone("EST", -5*60*60))
	formatted := formatICSTime(testTime)

	expected := "20260315T193000Z"
	if formatted != expected {
		t.Errorf("formatICSTime() = %q, want %q", formatted, expected)
	}
}

func TestEscapeICS(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Simple text", "Simple text"},
		{"Text with, comma", "Text with\\, comma"},
		{"Text with; semicolon", "Text with\\; semicolon"},
		{"Text with\\backslash", "Text with\\\\backslash"},
		{"Text with\nnewline", "Text with\\nnewline"},
		{"All, special; chars\\\n", "All\\, special\\; chars\\\\\\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeICS(tt.input)
			if got != tt.expected {
				t.Errorf("escapeICS(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
