package extract

import (
	"regexp"
	"strings"

	"github.com/netnav/netnav/internal/event"
)

var (
	stateZipPattern = regexp.MustCompile(`^([A-Za-z]{2})\.?(?:\s+(\d{5}(?:-\d{4})?))?$`)
	streetPattern   = regexp.MustCompile(`^\d+[A-Za-z]?\s+\S`)
)

// ParseLocation splits text like "Name, 123 Main St, Durham, NC 27701" into
// a Location. ok is false when the text does not end in a city and state.
func ParseLocation(text string) (*event.Location, bool) {
	raw := strings.Split(cleanText(text), ",")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return nil, false
	}

	m := stateZipPattern.FindStringSubmatch(parts[len(parts)-1])
	if m == nil {
		return nil, false
	}

	loc := &event.Location{
		State: strings.ToUpper(m[1]),
		Zip:   m[2],
		City:  parts[len(parts)-2],
	}

	rest := parts[:len(parts)-2]
	switch {
	case len(rest) == 0:
	case len(rest) == 1 && streetPattern.MatchString(rest[0]):
		loc.Address = rest[0]
	case len(rest) == 1:
		loc.Name = rest[0]
	default:
		loc.Address = rest[len(rest)-1]
		loc.Name = strings.Join(rest[:len(rest)-1], ", ")
	}
	return loc, true
}
