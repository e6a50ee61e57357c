package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/netnav/netnav/internal/event"
)

// SQLStore implements Store on PostgreSQL or MySQL
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	nowFunc func() time.Time
	newID   func() string
}

// OpenSQL connects, verifies the connection and creates missing tables
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s driver requires a DSN", driver)
	}
	if driver == DriverMySQL {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := NewSQLStore(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open handle. It does not create tables.
func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	var d dialect
	switch driver {
	case DriverPostgres:
		d = postgresDialect
	case DriverMySQL:
		d = mysqlDialect
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", driver)
	}
	return &SQLStore{db: db, dialect: d, nowFunc: time.Now, newID: uuid.NewString}, nil
}

// mysqlDSN forces the options the store relies on: DATETIME scanning into
// time.Time in UTC, and matched (not changed) rows in RowsAffected
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing mysql DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// Migrate creates the tables if they do not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

type scanner interface {
	Scan(dest ...any) error
}

const venueColumns = `id, name, address, city, state, zip, latitude, longitude, created_at, updated_at`

func scanVenue(row scanner) (*event.Venue, error) {
	var v event.Venue
	if err := row.Scan(&v.ID, &v.Name, &v.Address, &v.City, &v.State, &v.Zip,
		&v.Latitude, &v.Longitude, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// FindVenue implements Store
func (s *SQLStore) FindVenue(ctx context.Context, address, city, state string) (*event.Venue, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+venueColumns+` FROM venues WHERE address = ? AND city = ? AND state = ?`),
		address, city, state)
	v, err := scanVenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query venue: %w", err)
	}
	return v, nil
}

// CreateVenue implements Store
func (s *SQLStore) CreateVenue(ctx context.Context, v *event.Venue) error {
	now := s.nowFunc().UTC()
	id := s.newID()

	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO venues (`+venueColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, v.Name, v.Address, v.City, v.State, v.Zip, v.Latitude, v.Longitude, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert venue: %w", err)
	}
	v.ID = id
	v.CreatedAt = now
	v.UpdatedAt = now
	return nil
}

// UpdateVenue implements Store
func (s *SQLStore) UpdateVenue(ctx context.Context, v *event.Venue) error {
	now := s.nowFunc().UTC()
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE venues SET name = ?, address = ?, zip = ?, updated_at = ? WHERE id = ?`),
		v.Name, v.Address, v.Zip, now, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}
	v.UpdatedAt = now
	return nil
}

// GetVenue implements Store
func (s *SQLStore) GetVenue(ctx context.Context, id string) (*event.Venue, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+venueColumns+` FROM venues WHERE id = ?`), id)
	v, err := scanVenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query venue: %w", err)
	}
	return v, nil
}

// CountVenues implements Store
func (s *SQLStore) CountVenues(ctx context.Context) (int, error) {
	return s.count(ctx, "venues")
}

const eventColumns = `e.id, e.title, e.description, e.start_time, e.end_time, e.venue_id, e.industries, e.event_type, e.source_url, e.source_id, e.created_at, e.updated_at`

func scanEvent(row scanner) (*event.Event, error) {
	var (
		e          event.Event
		start, end sql.NullTime
		venueID    sql.NullString
		industries string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &start, &end, &venueID,
		&industries, &e.EventType, &e.SourceURL, &e.SourceID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if start.Valid {
		e.Start = start.Time
	}
	if end.Valid {
		e.End = end.Time
	}
	if venueID.Valid {
		e.VenueID = venueID.String
	}
	if industries != "" {
		if err := json.Unmarshal([]byte(industries), &e.Industries); err != nil {
			return nil, fmt.Errorf("decoding industries of event %s: %w", e.ID, err)
		}
	}
	return &e, nil
}

// UpsertEvent implements Store
func (s *SQLStore) UpsertEvent(ctx context.Context, e *event.Event) (bool, error) {
	industries, err := json.Marshal(e.Industries)
	if err != nil {
		return false, fmt.Errorf("encoding industries: %w", err)
	}
	now := s.nowFunc().UTC()

	var (
		id        string
		createdAt time.Time
	)
	err = s.db.QueryRowContext(ctx,
		s.q(`SELECT id, created_at FROM events WHERE source_url = ? AND source_id = ?`),
		e.SourceURL, e.SourceID).Scan(&id, &createdAt)

	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			s.q(`UPDATE events SET title = ?, description = ?, start_time = ?, end_time = ?, venue_id = ?, industries = ?, event_type = ?, updated_at = ? WHERE id = ?`),
			e.Title, e.Description, nullTime(e.Start), nullTime(e.End), nullString(e.VenueID),
			string(industries), e.EventType, now, id)
		if err != nil {
			return false, fmt.Errorf("failed to update event: %w", err)
		}
		e.ID = id
		e.CreatedAt = createdAt
		e.UpdatedAt = now
		return false, nil

	case errors.Is(err, sql.ErrNoRows):
		minted := s.newID()
		_, err = s.db.ExecContext(ctx,
			s.q(`INSERT INTO events (id, title, description, start_time, end_time, venue_id, industries, event_type, source_url, source_id, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) `+s.dialect.eventUpsert),
			minted, e.Title, e.Description, nullTime(e.Start), nullTime(e.End), nullString(e.VenueID),
			string(industries), e.EventType, e.SourceURL, e.SourceID, now, now)
		if err != nil {
			return false, fmt.Errorf("failed to insert event: %w", err)
		}

		// A concurrent writer may have inserted the row first, in which case
		// the conflict clause updated its row and our id was never stored.
		err = s.db.QueryRowContext(ctx,
			s.q(`SELECT id, created_at FROM events WHERE source_url = ? AND source_id = ?`),
			e.SourceURL, e.SourceID).Scan(&id, &createdAt)
		if err != nil {
			return false, fmt.Errorf("failed to read back event: %w", err)
		}
		e.ID = id
		e.CreatedAt = createdAt
		e.UpdatedAt = now
		return id == minted, nil

	default:
		return false, fmt.Errorf("failed to query event: %w", err)
	}
}

// GetEvent implements Store
func (s *SQLStore) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+eventColumns+` FROM events e WHERE e.id = ?`), id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return e, nil
}

// ListEvents implements Store
func (s *SQLStore) ListEvents(ctx context.Context, filter EventFilter) ([]*event.Event, error) {
	var (
		where []string
		args  []any
	)
	if filter.SourceURL != "" {
		where = append(where, "e.source_url = ?")
		args = append(args, filter.SourceURL)
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		where = append(where, "LOWER(v.city) = ?")
		args = append(args, strings.ToLower(city))
	}
	if !filter.From.IsZero() {
		where = append(where, "(e.start_time IS NULL OR e.start_time >= ?)")
		args = append(args, filter.From.UTC())
	}

	query := `SELECT ` + eventColumns + ` FROM events e LEFT JOIN venues v ON v.id = e.venue_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY e.start_time, e.title`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEvents implements Store
func (s *SQLStore) CountEvents(ctx context.Context) (int, error) {
	return s.count(ctx, "events")
}

const sourceColumns = `id, url, name, source_type, scrape_config, active, last_scraped, created_at`

func scanSource(row scanner) (*event.EventSource, error) {
	var (
		src         event.EventSource
		config      sql.NullString
		lastScraped sql.NullTime
	)
	if err := row.Scan(&src.ID, &src.URL, &src.Name, &src.SourceType, &config,
		&src.Active, &lastScraped, &src.CreatedAt); err != nil {
		return nil, err
	}
	if lastScraped.Valid {
		t := lastScraped.Time
		src.LastScraped = &t
	}
	if config.Valid {
		cfg, err := event.ParseScrapeConfig([]byte(config.String))
		if err != nil {
			return nil, fmt.Errorf("source %s has an invalid scrape config: %w", src.URL, err)
		}
		src.ScrapeConfig = cfg
	}
	return &src, nil
}

// GetSource implements Store
func (s *SQLStore) GetSource(ctx context.Context, url string) (*event.EventSource, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+sourceColumns+` FROM event_sources WHERE url = ?`), url)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}
	return src, nil
}

// SaveSource implements Store
func (s *SQLStore) SaveSource(ctx context.Context, src *event.EventSource) error {
	existing, err := s.GetSource(ctx, src.URL)
	switch {
	case err == nil:
		src.ID = existing.ID
		src.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrNotFound):
		src.ID = s.newID()
		src.CreatedAt = s.nowFunc().UTC()
	default:
		return err
	}

	var config sql.NullString
	if src.ScrapeConfig != nil {
		data, err := json.Marshal(src.ScrapeConfig)
		if err != nil {
			return fmt.Errorf("encoding scrape config: %w", err)
		}
		config = sql.NullString{String: string(data), Valid: true}
	}

	var lastScraped sql.NullTime
	if src.LastScraped != nil {
		lastScraped = sql.NullTime{Time: src.LastScraped.UTC(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		s.q(`INSERT INTO event_sources (`+sourceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?) `+s.dialect.sourceUpsert),
		src.ID, src.URL, src.Name, src.SourceType, config, src.Active, lastScraped, src.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save source %s: %w", src.URL, err)
	}
	return nil
}

// TouchSource implements Store
func (s *SQLStore) TouchSource(ctx context.Context, url string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE event_sources SET last_scraped = ? WHERE url = ?`), at.UTC(), url)
	if err != nil {
		return fmt.Errorf("failed to touch source: %w", err)
	}
	return expectRow(res)
}

// ListSources implements Store
func (s *SQLStore) ListSources(ctx context.Context, activeOnly bool) ([]*event.EventSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM event_sources`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY url`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []*event.EventSource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Ping implements Store
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
