package extract

import (
	"github.com/netnav/netnav/internal/event"
)

// NewSelectorExtractor builds an extractor from a stored selector config.
// Titles, locations and layouts the config leaves out come from base.
// Placeholders are never synthesized for configured selectors.
func NewSelectorExtractor(cfg *event.ScrapeConfig, base Profile, opts Options) *ProfileExtractor {
	p := Profile{
		Name:                base.Name + "-selector",
		HostKey:             base.HostKey,
		BlockSelectors:      []string{cfg.EventSelector},
		TitleSelector:       cfg.TitleSelector,
		DescriptionSelector: cfg.DescriptionSelector,
		DateSelector:        cfg.DateSelector,
		TimeSelector:        cfg.TimeSelector,
		LocationSelector:    cfg.LocationSelector,
		DefaultTitle:        base.DefaultTitle,
		DefaultDescription:  base.DefaultDescription,
		DefaultLocation:     base.DefaultLocation,
		Layouts:             base.Layouts,
	}
	if layouts := cfg.Layouts(); layouts != nil {
		p.Layouts = layouts
	}
	opts.Placeholders = false
	return NewProfileExtractor(p, opts)
}
