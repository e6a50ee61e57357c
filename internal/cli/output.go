package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/netnav/netnav/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// OutputResult contains data to be output
type OutputResult struct {
	ScrapedAt    time.Time      `json:"scraped_at"`
	Sources      []string       `json:"sources"`
	Events       []*event.Event `json:"events"`
	EventCount   int            `json:"event_count"`
	Created      int            `json:"created"`
	Updated      int            `json:"updated"`
	Failed       int            `json:"failed"`
	Placeholders int            `json:"placeholders"`

	// venues is used for text rendering only
	venues map[string]*event.Venue
	// stored results come from the store, not a scrape, and have no counters
	stored bool
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Events == nil {
		result.Events = []*event.Event{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, evt := range result.Events {
		fmt.Fprintf(w, "%s  %s\n", formatStart(evt.Start), evt.Title)
		if v := result.venues[evt.VenueID]; v != nil {
			fmt.Fprintf(w, "     Venue: %s\n", venueLine(v))
		}
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", evt.ID)
			fmt.Fprintf(w, "     Source ID: %s\n", evt.SourceID)
			if evt.Description != "" {
				fmt.Fprintf(w, "     Description: %s\n", evt.Description)
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events", result.EventCount)
	if len(result.Sources) > 1 {
		fmt.Fprintf(w, " across %d sources", len(result.Sources))
	}
	fmt.Fprintln(w)
	if result.stored {
		return nil
	}
	fmt.Fprintf(w, "Created: %d, Updated: %d, Failed: %d", result.Created, result.Updated, result.Failed)
	if result.Placeholders > 0 {
		fmt.Fprintf(w, ", Placeholders: %d", result.Placeholders)
	}
	fmt.Fprintln(w)
	return nil
}

func formatStart(t time.Time) string {
	if t.IsZero() {
		return "(date TBA)      "
	}
	return t.Format("2006-01-02 15:04")
}

func venueLine(v *event.Venue) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{v.Name, v.Address, strings.TrimSpace(v.City + ", " + v.State)} {
		if p != "" && p != "," && (len(parts) == 0 || parts[len(parts)-1] != p) {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
