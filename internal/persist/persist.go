// Package persist writes normalized events through a storage.Store.
//
// For each event the venue is resolved first (found by exact address, city
// and state, or created with coordinates from the geo resolver), then the
// event is upserted by (source URL, source ID). A failure on one event is
// logged and counted and the batch continues. Finally the source's last
// scrape time is recorded, creating the source row if needed.
package persist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/geo"
	"github.com/netnav/netnav/internal/logger"
	"github.com/netnav/netnav/internal/normalize"
	"github.com/netnav/netnav/internal/storage"
)

// Result summarizes one Persist call
type Result struct {
	Events  []*event.Event
	Created int
	Updated int
	Failed  int
}

// Upserter persists normalized events
type Upserter struct {
	store    storage.Store
	resolver *geo.Resolver
	nowFunc  func() time.Time
}

// New creates an Upserter. A nil resolver uses the embedded city table only.
func New(store storage.Store, resolver *geo.Resolver) *Upserter {
	if resolver == nil {
		resolver = geo.NewResolver(nil, nil)
	}
	return &Upserter{store: store, resolver: resolver, nowFunc: time.Now}
}

// ResolveVenue finds or creates the venue for loc. It returns nil for an
// empty location. Existing venues get their name, address and zip refreshed;
// their coordinates are never changed.
func (u *Upserter) ResolveVenue(ctx context.Context, loc *event.Location) (*event.Venue, error) {
	if loc.IsEmpty() {
		return nil, nil
	}

	name := loc.Name
	if name == "" {
		name = loc.Address
	}
	if name == "" {
		name = loc.City
	}

	venue, err := u.store.FindVenue(ctx, loc.Address, loc.City, loc.State)
	switch {
	case err == nil:
		if loc.Name != "" {
			venue.Name = loc.Name
		}
		venue.Address = loc.Address
		if loc.Zip != "" {
			venue.Zip = loc.Zip
		}
		if err := u.store.UpdateVenue(ctx, venue); err != nil {
			return nil, fmt.Errorf("updating venue: %w", err)
		}
		return venue, nil

	case errors.Is(err, storage.ErrNotFound):
		coords := u.resolver.Resolve(ctx, *loc)
		venue = &event.Venue{
			Name:      name,
			Address:   loc.Address,
			City:      loc.City,
			State:     loc.State,
			Zip:       loc.Zip,
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
		}
		if err := u.store.CreateVenue(ctx, venue); err != nil {
			return nil, fmt.Errorf("creating venue: %w", err)
		}
		return venue, nil

	default:
		return nil, fmt.Errorf("finding venue: %w", err)
	}
}

// UpsertEvent resolves the venue and writes the event
func (u *Upserter) UpsertEvent(ctx context.Context, ne normalize.NormalizedEvent) (*event.Event, bool, error) {
	venue, err := u.ResolveVenue(ctx, ne.Location)
	if err != nil {
		return nil, false, err
	}

	venueID := ""
	if venue != nil {
		venueID = venue.ID
	}

	e := ne.Event(venueID)
	created, err := u.store.UpsertEvent(ctx, e)
	if err != nil {
		return nil, false, fmt.Errorf("upserting event: %w", err)
	}
	return e, created, nil
}

// TouchSource records that rawURL was just scraped. An unknown source is
// created as an active website source named after its hostname.
func (u *Upserter) TouchSource(ctx context.Context, rawURL string) error {
	now := u.nowFunc().UTC()

	err := u.store.TouchSource(ctx, rawURL, now)
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	src := &event.EventSource{
		URL:         rawURL,
		Name:        Hostname(rawURL),
		SourceType:  event.SourceTypeWebsite,
		Active:      true,
		LastScraped: &now,
	}
	if err := u.store.SaveSource(ctx, src); err != nil {
		return fmt.Errorf("creating source: %w", err)
	}
	logger.Info("Created event source", logger.Fields{
		"source_url": rawURL,
		"name":       src.Name,
	})
	return nil
}

// Persist upserts every event and then touches the source. Only a failure to
// touch the source is returned as an error; per-event failures are counted.
func (u *Upserter) Persist(ctx context.Context, sourceURL string, events []normalize.NormalizedEvent) (Result, error) {
	result := Result{Events: make([]*event.Event, 0, len(events))}

	for _, ne := range events {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		e, created, err := u.UpsertEvent(ctx, ne)
		if err != nil {
			result.Failed++
			logger.Error("Failed to persist event", logger.Fields{
				"source_url": sourceURL,
				"source_id":  ne.SourceID,
				"title":      ne.Title,
			}, err)
			continue
		}

		if created {
			result.Created++
		} else {
			result.Updated++
		}
		result.Events = append(result.Events, e)
	}

	if err := u.TouchSource(ctx, sourceURL); err != nil {
		return result, fmt.Errorf("touching source %s: %w", sourceURL, err)
	}
	return result, nil
}

// Hostname returns the host part of rawURL, or rawURL itself when it has none
func Hostname(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Hostname() == "" {
		return rawURL
	}
	return parsed.Hostname()
}
