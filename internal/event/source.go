package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ScrapeConfigType discriminates the scrape configuration variants
type ScrapeConfigType string

const (
	// ScrapeConfigSite uses the built-in per-site heuristics
	ScrapeConfigSite ScrapeConfigType = "site"
	// ScrapeConfigSelector uses the CSS selectors in the config
	ScrapeConfigSelector ScrapeConfigType = "selector"
)

// Scrape configuration validation errors.
var (
	ErrUnknownConfigType    = errors.New("scrape config type must be 'site' or 'selector'")
	ErrMissingEventSelector = errors.New("selector config requires event_selector")
	ErrMissingTitleSelector = errors.New("selector config requires title_selector")
	ErrWaitWithoutRender    = errors.New("wait_selector requires render_javascript")
)

// ScrapeConfig is the per-source scrape configuration stored with an EventSource
type ScrapeConfig struct {
	Type                ScrapeConfigType `json:"type" yaml:"type"`
	EventSelector       string           `json:"event_selector,omitempty" yaml:"event_selector"`
	TitleSelector       string           `json:"title_selector,omitempty" yaml:"title_selector"`
	DescriptionSelector string           `json:"description_selector,omitempty" yaml:"description_selector"`
	DateSelector        string           `json:"date_selector,omitempty" yaml:"date_selector"`
	TimeSelector        string           `json:"time_selector,omitempty" yaml:"time_selector"`
	LocationSelector    string           `json:"location_selector,omitempty" yaml:"location_selector"`
	DateFormat          string           `json:"date_format,omitempty" yaml:"date_format"`
	RenderJavaScript    bool             `json:"render_javascript,omitempty" yaml:"render_javascript"`
	WaitSelector        string           `json:"wait_selector,omitempty" yaml:"wait_selector"`
}

// Validate checks required fields for the config's variant
func (c *ScrapeConfig) Validate() error {
	switch c.Type {
	case ScrapeConfigSite:
	case ScrapeConfigSelector:
		if strings.TrimSpace(c.EventSelector) == "" {
			return ErrMissingEventSelector
		}
		if strings.TrimSpace(c.TitleSelector) == "" {
			return ErrMissingTitleSelector
		}
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownConfigType, c.Type)
	}
	if c.WaitSelector != "" && !c.RenderJavaScript {
		return ErrWaitWithoutRender
	}
	return nil
}

// Layouts returns the Go time layouts for the config's date format,
// or nil when the config does not name one
func (c *ScrapeConfig) Layouts() []string {
	if c == nil || c.DateFormat == "" {
		return nil
	}
	return []string{ConvertDatePattern(c.DateFormat)}
}

// ParseScrapeConfig decodes and validates a stored config blob.
// An empty or null blob yields a nil config.
func ParseScrapeConfig(data []byte) (*ScrapeConfig, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var cfg ScrapeConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding scrape config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// datePatternTokens maps Unicode date pattern tokens (as in "MMMM d, yyyy")
// to Go layout elements. Longer tokens come first.
var datePatternTokens = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MMMM", "January",
	"MMM", "Jan",
	"MM", "01",
	"M", "1",
	"dd", "02",
	"d", "2",
	"EEEE", "Monday",
	"EEE", "Mon",
	"HH", "15",
	"hh", "03",
	"h", "3",
	"mm", "04",
	"a", "PM",
)

// ConvertDatePattern accepts either a Go layout or a pattern such as
// "MMMM d, yyyy" / "MM/dd/yyyy" and returns a Go layout.
func ConvertDatePattern(pattern string) string {
	if !strings.Contains(pattern, "yy") {
		return pattern
	}
	return datePatternTokens.Replace(pattern)
}
