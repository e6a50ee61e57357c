package extract

import (
	"net/url"
	"strings"

	"github.com/netnav/netnav/internal/event"
)

// Registry maps page hostnames to extraction profiles
type Registry struct {
	profiles []Profile
	generic  Profile
	opts     Options
}

// NewRegistry creates a registry holding the built-in site profiles
func NewRegistry(opts Options) *Registry {
	return &Registry{
		profiles: []Profile{DurhamProfile(), GreensboroProfile(), CharlotteProfile()},
		generic:  GenericProfile(),
		opts:     opts.normalized(),
	}
}

// ProfileFor returns the profile whose host key appears in the URL's hostname
func (r *Registry) ProfileFor(rawURL string) Profile {
	host := hostname(rawURL)
	for _, p := range r.profiles {
		if p.HostKey != "" && strings.Contains(host, p.HostKey) {
			return p
		}
	}
	return r.generic
}

// Lookup returns the site-heuristic extractor for a URL
func (r *Registry) Lookup(rawURL string) Extractor {
	return NewProfileExtractor(r.ProfileFor(rawURL), r.opts)
}

// ForSource returns a selector-driven extractor when the source carries a
// selector config, and the site heuristics otherwise
func (r *Registry) ForSource(src *event.EventSource) Extractor {
	if src.ScrapeConfig != nil && src.ScrapeConfig.Type == event.ScrapeConfigSelector {
		return NewSelectorExtractor(src.ScrapeConfig, r.ProfileFor(src.URL), r.opts)
	}
	return r.Lookup(src.URL)
}

func hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}
