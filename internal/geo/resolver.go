package geo

import (
	"context"

	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/logger"
)

// Resolver picks coordinates for a new venue: the static table first, then
// the geocoder when one is configured, then Fallback.
type Resolver struct {
	table    *Table
	geocoder Geocoder
}

// NewResolver creates a resolver. geocoder may be nil.
func NewResolver(table *Table, geocoder Geocoder) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{table: table, geocoder: geocoder}
}

// Resolve never fails; lookup errors degrade to Fallback
func (r *Resolver) Resolve(ctx context.Context, loc event.Location) Coordinates {
	if c, ok := r.table.Lookup(loc.City, loc.State); ok {
		return c
	}
	if c, ok := r.table.Lookup(loc.City, ""); ok && loc.State == "" {
		return c
	}

	if r.geocoder != nil {
		c, found, err := r.geocoder.Geocode(ctx, loc)
		if err != nil {
			logger.Warn("Geocoder lookup failed, using fallback coordinates", logger.Fields{
				"city":  loc.City,
				"state": loc.State,
				"error": err.Error(),
			})
		} else if found {
			return c
		}
	}

	return Fallback
}
