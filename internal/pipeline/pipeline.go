// Package pipeline runs fetch → extract → normalize → persist for a page.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/extract"
	"github.com/netnav/netnav/internal/fetch"
	"github.com/netnav/netnav/internal/logger"
	"github.com/netnav/netnav/internal/metrics"
	"github.com/netnav/netnav/internal/normalize"
	"github.com/netnav/netnav/internal/persist"
	"github.com/netnav/netnav/internal/storage"
)

// RendererFactory builds a JavaScript-capable page source
type RendererFactory func(waitSelector string) fetch.Source

// Deps are the collaborators a Pipeline needs. Store, Fetcher, Registry and
// Upserter are required; Renderer and Metrics may be nil.
type Deps struct {
	Store    storage.Store
	Fetcher  fetch.Source
	Renderer RendererFactory
	Registry *extract.Registry
	Upserter *persist.Upserter
	Metrics  *metrics.Metrics
}

// Pipeline scrapes pages into the store
type Pipeline struct {
	store      storage.Store
	fetcher    fetch.Source
	renderer   RendererFactory
	registry   *extract.Registry
	normalizer *normalize.Normalizer
	upserter   *persist.Upserter
	metrics    *metrics.Metrics
}

// New creates a Pipeline
func New(deps Deps) *Pipeline {
	return &Pipeline{
		store:      deps.Store,
		fetcher:    deps.Fetcher,
		renderer:   deps.Renderer,
		registry:   deps.Registry,
		normalizer: normalize.New(deps.Registry),
		upserter:   deps.Upserter,
		metrics:    deps.Metrics,
	}
}

// Result describes one scraped page
type Result struct {
	SourceURL    string         `json:"sourceUrl"`
	Events       []*event.Event `json:"events"`
	Created      int            `json:"created"`
	Updated      int            `json:"updated"`
	Failed       int            `json:"failed"`
	Placeholders int            `json:"placeholders"`
	Duration     time.Duration  `json:"duration"`
}

// EventsProcessed is the number of events stored
func (r *Result) EventsProcessed() int {
	return len(r.Events)
}

// Run scrapes rawURL with the site heuristics for its host. A fetch failure
// is returned; per-event failures are logged and counted in the result.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*Result, error) {
	return p.scrape(ctx, rawURL, p.fetcher, p.registry.Lookup(rawURL))
}

// RunSource scrapes a stored source, honoring its scrape config
func (p *Pipeline) RunSource(ctx context.Context, src *event.EventSource) (*Result, error) {
	source := p.fetcher
	if cfg := src.ScrapeConfig; cfg != nil && cfg.RenderJavaScript {
		if p.renderer == nil {
			return nil, fmt.Errorf("source %s needs JavaScript rendering but no renderer is configured", src.URL)
		}
		source = p.renderer(cfg.WaitSelector)
	}
	return p.scrape(ctx, src.URL, source, p.registry.ForSource(src))
}

// RunSources scrapes every active source in turn. A failing source is
// logged and skipped; the results of the others are returned.
func (p *Pipeline) RunSources(ctx context.Context) ([]*Result, error) {
	sources, err := p.store.ListSources(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	results := make([]*Result, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := p.RunSource(ctx, src)
		if err != nil {
			p.metrics.EventFailed(persist.Hostname(src.URL), metrics.StageSource)
			logger.Error("Source scrape failed", logger.Fields{
				"source_url": src.URL,
			}, err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *Pipeline) scrape(ctx context.Context, rawURL string, source fetch.Source, extractor extract.Extractor) (*Result, error) {
	started := time.Now()
	host := persist.Hostname(rawURL)
	log := logger.Default().With(logger.Fields{"source_url": rawURL})

	log.Info("Scraping source", nil)

	html, err := source.Fetch(ctx, rawURL)
	if err != nil {
		p.metrics.ScrapeFinished("error", time.Since(started))
		return nil, err
	}

	scraped, err := extractor.Extract(html, rawURL)
	if err != nil {
		p.metrics.ScrapeFinished("error", time.Since(started))
		return nil, fmt.Errorf("extracting events: %w", err)
	}

	normalized := p.normalizer.NormalizeAll(rawURL, scraped)
	placeholders := 0
	for _, ne := range normalized {
		if ne.Placeholder {
			placeholders++
		}
	}
	p.metrics.PlaceholdersAdded(host, placeholders)

	persisted, err := p.upserter.Persist(ctx, rawURL, normalized)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		p.metrics.ScrapeFinished("error", time.Since(started))
		log.Warn("Scrape cancelled", logger.Fields{"stored": len(persisted.Events)})
		return nil, err
	}
	if err != nil {
		log.Warn("Scrape stored events but could not update the source", logger.Fields{
			"error": err.Error(),
		})
	}

	for range persisted.Events {
		p.metrics.EventProcessed(host)
	}
	for i := 0; i < persisted.Failed; i++ {
		p.metrics.EventFailed(host, metrics.StagePersist)
	}

	result := &Result{
		SourceURL:    rawURL,
		Events:       persisted.Events,
		Created:      persisted.Created,
		Updated:      persisted.Updated,
		Failed:       persisted.Failed,
		Placeholders: placeholders,
		Duration:     time.Since(started),
	}
	p.metrics.ScrapeFinished("ok", result.Duration)

	log.Info("Scrape finished", logger.Fields{
		"events":       result.EventsProcessed(),
		"created":      result.Created,
		"updated":      result.Updated,
		"failed":       result.Failed,
		"placeholders": placeholders,
		"duration_ms":  result.Duration.Milliseconds(),
	})
	return result, nil
}
