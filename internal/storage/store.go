package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/netnav/netnav/internal/event"
)

// ErrNotFound is returned by lookups that match no row
var ErrNotFound = errors.New("not found")

// EventFilter narrows ListEvents. Zero fields match everything.
type EventFilter struct {
	SourceURL string
	City      string
	From      time.Time
	Limit     int
}

// Store is the persistence boundary for the pipeline
type Store interface {
	// FindVenue matches address, city and state exactly
	FindVenue(ctx context.Context, address, city, state string) (*event.Venue, error)
	// CreateVenue assigns an ID and timestamps and inserts the venue
	CreateVenue(ctx context.Context, v *event.Venue) error
	// UpdateVenue writes name, address and zip. Coordinates are left as stored.
	UpdateVenue(ctx context.Context, v *event.Venue) error
	GetVenue(ctx context.Context, id string) (*event.Venue, error)
	CountVenues(ctx context.Context) (int, error)

	// UpsertEvent inserts or updates the event keyed by (SourceURL, SourceID).
	// On update the stored ID and CreatedAt are copied into e.
	UpsertEvent(ctx context.Context, e *event.Event) (created bool, err error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*event.Event, error)
	CountEvents(ctx context.Context) (int, error)

	GetSource(ctx context.Context, url string) (*event.EventSource, error)
	// SaveSource inserts or updates the source keyed by URL
	SaveSource(ctx context.Context, src *event.EventSource) error
	// TouchSource sets LastScraped. Returns ErrNotFound for an unknown URL.
	TouchSource(ctx context.Context, url string, at time.Time) error
	ListSources(ctx context.Context, activeOnly bool) ([]*event.EventSource, error)

	Ping(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Open creates the store for a driver. dataDir is used by the file driver,
// dsn by the SQL drivers.
func Open(ctx context.Context, driver, dsn, dataDir string) (Store, error) {
	switch driver {
	case "", DriverFile:
		return NewFileStore(dataDir)
	case DriverPostgres, DriverMySQL:
		return OpenSQL(ctx, driver, dsn)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
