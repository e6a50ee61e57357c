package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/netnav/netnav/internal/event"
)

const snapshotFile = "netnav.json"

// snapshot is the on-disk layout of a FileStore
type snapshot struct {
	Venues    map[string]*event.Venue       `json:"venues"`
	Events    map[string]*event.Event       `json:"events"`
	Sources   map[string]*event.EventSource `json:"sources"`
	UpdatedAt string                        `json:"updated_at"`
}

// FileStore keeps all records in one JSON file. Every write rewrites the file.
type FileStore struct {
	mu      sync.RWMutex
	dataDir string
	data    *snapshot
	nowFunc func() time.Time
}

// NewFileStore opens (or creates) the snapshot in dataDir
func NewFileStore(dataDir string) (*FileStore, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &FileStore{dataDir: dataDir, nowFunc: time.Now}
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	s.data = data
	return s, nil
}

// Path returns the snapshot file location
func (s *FileStore) Path() string {
	return filepath.Join(s.dataDir, snapshotFile)
}

func (s *FileStore) load() (*snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return emptySnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	snap := emptySnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	// Ensure maps are initialized
	if snap.Venues == nil {
		snap.Venues = make(map[string]*event.Venue)
	}
	if snap.Events == nil {
		snap.Events = make(map[string]*event.Event)
	}
	if snap.Sources == nil {
		snap.Sources = make(map[string]*event.EventSource)
	}
	return snap, nil
}

// save must be called with the write lock held
func (s *FileStore) save() error {
	s.data.UpdatedAt = s.nowFunc().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

func emptySnapshot() *snapshot {
	return &snapshot{
		Venues:  make(map[string]*event.Venue),
		Events:  make(map[string]*event.Event),
		Sources: make(map[string]*event.EventSource),
	}
}

// FindVenue implements Store
func (s *FileStore) FindVenue(ctx context.Context, address, city, state string) (*event.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.data.Venues {
		if v.Address == address && v.City == city && v.State == state {
			cp := *v
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// CreateVenue implements Store
func (s *FileStore) CreateVenue(ctx context.Context, v *event.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc().UTC()
	v.ID = uuid.NewString()
	v.CreatedAt = now
	v.UpdatedAt = now

	cp := *v
	s.data.Venues[v.ID] = &cp
	return s.save()
}

// UpdateVenue implements Store
func (s *FileStore) UpdateVenue(ctx context.Context, v *event.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.data.Venues[v.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Name = v.Name
	stored.Address = v.Address
	stored.Zip = v.Zip
	stored.UpdatedAt = s.nowFunc().UTC()

	v.Latitude = stored.Latitude
	v.Longitude = stored.Longitude
	v.UpdatedAt = stored.UpdatedAt
	return s.save()
}

// GetVenue implements Store
func (s *FileStore) GetVenue(ctx context.Context, id string) (*event.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data.Venues[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// CountVenues implements Store
func (s *FileStore) CountVenues(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Venues), nil
}

// UpsertEvent implements Store
func (s *FileStore) UpsertEvent(ctx context.Context, e *event.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc().UTC()
	for _, stored := range s.data.Events {
		if stored.SourceURL == e.SourceURL && stored.SourceID == e.SourceID {
			e.ID = stored.ID
			e.CreatedAt = stored.CreatedAt
			e.UpdatedAt = now
			cp := copyEvent(e)
			s.data.Events[e.ID] = cp
			return false, s.save()
		}
	}

	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.data.Events[e.ID] = copyEvent(e)
	return true, s.save()
}

// GetEvent implements Store
func (s *FileStore) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data.Events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEvent(e), nil
}

// ListEvents implements Store. Results are ordered by start time, then title.
func (s *FileStore) ListEvents(ctx context.Context, filter EventFilter) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	city := strings.ToLower(strings.TrimSpace(filter.City))
	events := make([]*event.Event, 0, len(s.data.Events))
	for _, e := range s.data.Events {
		if filter.SourceURL != "" && e.SourceURL != filter.SourceURL {
			continue
		}
		if !filter.From.IsZero() && !e.Start.IsZero() && e.Start.Before(filter.From) {
			continue
		}
		if city != "" {
			v, ok := s.data.Venues[e.VenueID]
			if !ok || strings.ToLower(v.City) != city {
				continue
			}
		}
		events = append(events, copyEvent(e))
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].Title < events[j].Title
	})

	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events, nil
}

// CountEvents implements Store
func (s *FileStore) CountEvents(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Events), nil
}

// GetSource implements Store
func (s *FileStore) GetSource(ctx context.Context, url string) (*event.EventSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.data.Sources[url]
	if !ok {
		return nil, ErrNotFound
	}
	return copySource(src), nil
}

// SaveSource implements Store
func (s *FileStore) SaveSource(ctx context.Context, src *event.EventSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.data.Sources[src.URL]; ok {
		src.ID = stored.ID
		src.CreatedAt = stored.CreatedAt
		if src.LastScraped == nil {
			src.LastScraped = stored.LastScraped
		}
	} else {
		src.ID = uuid.NewString()
		src.CreatedAt = s.nowFunc().UTC()
	}
	s.data.Sources[src.URL] = copySource(src)
	return s.save()
}

// TouchSource implements Store
func (s *FileStore) TouchSource(ctx context.Context, url string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.data.Sources[url]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	src.LastScraped = &at
	return s.save()
}

// ListSources implements Store. Results are ordered by URL.
func (s *FileStore) ListSources(ctx context.Context, activeOnly bool) ([]*event.EventSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make([]*event.EventSource, 0, len(s.data.Sources))
	for _, src := range s.data.Sources {
		if activeOnly && !src.Active {
			continue
		}
		sources = append(sources, copySource(src))
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].URL < sources[j].URL
	})
	return sources, nil
}

// Ping checks that the data directory is still writable
func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dataDir)
	if err != nil {
		return fmt.Errorf("checking data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", s.dataDir)
	}
	return nil
}

// Close implements Store
func (s *FileStore) Close() error {
	return nil
}

func copyEvent(e *event.Event) *event.Event {
	cp := *e
	cp.Industries = append([]string(nil), e.Industries...)
	return &cp
}

func copySource(src *event.EventSource) *event.EventSource {
	cp := *src
	if src.ScrapeConfig != nil {
		cfg := *src.ScrapeConfig
		cp.ScrapeConfig = &cfg
	}
	if src.LastScraped != nil {
		t := *src.LastScraped
		cp.LastScraped = &t
	}
	return &cp
}
