package pipeline

import (
	"github.com/netnav/netnav/internal/config"
	"github.com/netnav/netnav/internal/extract"
	"github.com/netnav/netnav/internal/fetch"
	"github.com/netnav/netnav/internal/geo"
	"github.com/netnav/netnav/internal/metrics"
	"github.com/netnav/netnav/internal/persist"
	"github.com/netnav/netnav/internal/storage"
)

// FromConfig assembles a Pipeline from a validated config. m may be nil.
func FromConfig(cfg *config.Config, store storage.Store, m *metrics.Metrics) *Pipeline {
	opts := extract.Options{
		Location:     cfg.Location(),
		DatePolicy:   cfg.DatePolicy(),
		Placeholders: cfg.Scrape.Placeholders,
		OnBlockError: func(pageURL string, err error) {
			m.EventFailed(persist.Hostname(pageURL), metrics.StageExtract)
		},
	}

	var geocoder geo.Geocoder
	if cfg.Geo.GeocoderEnabled {
		geocoder = geo.NewHTTPGeocoder(cfg.Geo.GeocoderURL, cfg.Geo.CacheTTL)
	}

	userAgent := cfg.Scrape.UserAgent
	return New(Deps{
		Store:   store,
		Fetcher: fetch.New(userAgent),
		Renderer: func(waitSelector string) fetch.Source {
			return fetch.NewRenderer(userAgent, waitSelector)
		},
		Registry: extract.NewRegistry(opts),
		Upserter: persist.New(store, geo.NewResolver(geo.DefaultTable(), geocoder)),
		Metrics:  m,
	})
}
