package event

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DatePolicy decides what happens to an event whose date text cannot be parsed
type DatePolicy string

const (
	// PolicyDefaultNow keeps the event and starts it at the current time
	PolicyDefaultNow DatePolicy = "default-now"
	// PolicyDefaultNull keeps the event without a start time
	PolicyDefaultNull DatePolicy = "default-null"
	// PolicyReject drops the event
	PolicyReject DatePolicy = "reject"
)

// ParseDatePolicy validates a policy name. Empty means PolicyDefaultNow.
func ParseDatePolicy(s string) (DatePolicy, error) {
	switch DatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDefaultNow:
		return PolicyDefaultNow, nil
	case PolicyDefaultNull:
		return PolicyDefaultNull, nil
	case PolicyReject:
		return PolicyReject, nil
	}
	return "", fmt.Errorf("unknown date policy %q (want default-now, default-null or reject)", s)
}

// DateParseError is returned when date text matches none of the layouts
type DateParseError struct {
	Text    string
	Layouts []string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("cannot parse date %q (tried %s)", e.Text, strings.Join(e.Layouts, "; "))
}

// DefaultLayouts are tried when a site does not specify its own
var DefaultLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2006-01-02",
}

var (
	ordinalSuffix = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
	// "Mar. 15" → "Mar 15"
	abbrevMonthDot = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.`)
	// Candidates embedded in longer text such as "Tuesday, March 15th, 2025 | 5pm"
	monthNameDate = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}`)
	slashDate     = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	isoDate       = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

// ParseDate parses date text against the given layouts in loc.
// When the whole text does not parse, date-looking substrings are tried.
// Returns *DateParseError when nothing matches.
func ParseDate(text string, layouts []string, loc *time.Location) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}
	if loc == nil {
		loc = time.Local
	}

	cleaned := ordinalSuffix.ReplaceAllString(text, "$1")
	cleaned = abbrevMonthDot.ReplaceAllString(cleaned, "$1")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return time.Time{}, &DateParseError{Text: text, Layouts: layouts}
	}

	candidates := []string{cleaned}
	for _, re := range []*regexp.Regexp{monthNameDate, slashDate, isoDate} {
		if m := re.FindString(cleaned); m != "" && m != cleaned {
			candidates = append(candidates, m)
		}
	}

	for _, c := range candidates {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, c, loc); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, &DateParseError{Text: text, Layouts: layouts}
}

// ClockRange is a time-of-day span parsed from text like "5:30 PM - 7:30 PM"
type ClockRange struct {
	StartHour, StartMinute int
	EndHour, EndMinute     int
	HasEnd                 bool
}

var (
	clockRangePattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*([ap])?\.?\s?(m\.?)?\s*(?:-|–|—|to)\s*(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s?m\.?`)
	clockPattern      = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s?m\.?`)
	clock24Pattern    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
)

// ParseClock finds a time of day (or range) in text. ok is false when none is found.
func ParseClock(text string) (ClockRange, bool) {
	if m := clockRangePattern.FindStringSubmatch(text); m != nil {
		endMer := strings.ToLower(m[7])
		startMer := strings.ToLower(m[3])
		inherited := startMer == ""
		if inherited {
			startMer = endMer
		}
		c := ClockRange{
			StartHour:   to24(atoi(m[1]), startMer),
			StartMinute: atoi(m[2]),
			EndHour:     to24(atoi(m[5]), endMer),
			EndMinute:   atoi(m[6]),
			HasEnd:      true,
		}
		// "11:30 - 1:00 PM" starts in the morning
		if inherited && c.StartHour*60+c.StartMinute > c.EndHour*60+c.EndMinute {
			c.StartHour -= 12
		}
		if validClock(c.StartHour, c.StartMinute) && validClock(c.EndHour, c.EndMinute) {
			return c, true
		}
	}
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		c := ClockRange{StartHour: to24(atoi(m[1]), strings.ToLower(m[3])), StartMinute: atoi(m[2])}
		if validClock(c.StartHour, c.StartMinute) {
			return c, true
		}
	}
	if m := clock24Pattern.FindStringSubmatch(text); m != nil {
		return ClockRange{StartHour: atoi(m[1]), StartMinute: atoi(m[2])}, true
	}
	return ClockRange{}, false
}

// DefaultDuration is applied when no explicit end time is known
const DefaultDuration = 2 * time.Hour

// Span places the clock range on the given day and returns start and end.
// Without an explicit end the event lasts DefaultDuration.
func (c ClockRange) Span(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), c.StartHour, c.StartMinute, 0, 0, day.Location())
	if !c.HasEnd {
		return start, start.Add(DefaultDuration)
	}
	end := time.Date(day.Year(), day.Month(), day.Day(), c.EndHour, c.EndMinute, 0, 0, day.Location())
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end
}

// Schedule is the resolved time span of an event
type Schedule struct {
	Start time.Time
	End   time.Time
	// Defaulted is set when the date text did not parse and Start was
	// filled in by PolicyDefaultNow
	Defaulted bool
}

// ResolveSchedule turns date and time text into a start and end.
//
// A date that fails to parse is handled per policy: PolicyDefaultNow starts
// the event at now and marks the schedule Defaulted, PolicyDefaultNull
// returns zero times, and PolicyReject returns the *DateParseError.
func ResolveSchedule(dateText, timeText string, layouts []string, loc *time.Location, policy DatePolicy, now time.Time) (Schedule, error) {
	day, err := ParseDate(dateText, layouts, loc)
	if err != nil {
		switch policy {
		case PolicyReject:
			return Schedule{}, err
		case PolicyDefaultNull:
			return Schedule{}, nil
		default:
			return Schedule{Start: now, End: now.Add(DefaultDuration), Defaulted: true}, nil
		}
	}

	clock, ok := ParseClock(timeText)
	if !ok {
		// The date cell sometimes carries the time as well
		clock, ok = ParseClock(dateText)
	}
	if !ok {
		return Schedule{Start: day, End: day.Add(DefaultDuration)}, nil
	}
	start, end := clock.Span(day)
	return Schedule{Start: start, End: end}, nil
}

func to24(hour int, meridiem string) int {
	switch meridiem {
	case "a":
		return hour % 12
	case "p":
		return hour%12 + 12
	}
	return hour
}

func validClock(h, m int) bool {
	return h >= 0 && h < 24 && m >= 0 && m < 60
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
