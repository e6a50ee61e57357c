package storage

import (
	"strconv"
	"strings"
)

// dialect holds the statements that differ between PostgreSQL and MySQL
type dialect struct {
	name         string
	schema       []string
	eventUpsert  string
	sourceUpsert string
	dollarParams bool
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL
func (d dialect) rebind(query string) string {
	if !d.dollarParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var postgresDialect = dialect{
	name:         DriverPostgres,
	dollarParams: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS venues (
			id VARCHAR(36) PRIMARY KEY,
			name TEXT NOT NULL,
			address VARCHAR(255) NOT NULL,
			city VARCHAR(128) NOT NULL,
			state VARCHAR(32) NOT NULL,
			zip VARCHAR(16) NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (address, city, state)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(36) PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			start_time TIMESTAMPTZ,
			end_time TIMESTAMPTZ,
			venue_id VARCHAR(36) REFERENCES venues(id),
			industries TEXT NOT NULL,
			event_type VARCHAR(64) NOT NULL,
			source_url VARCHAR(500) NOT NULL,
			source_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (source_url, source_id)
		)`,
		`CREATE TABLE IF NOT EXISTS event_sources (
			id VARCHAR(36) PRIMARY KEY,
			url VARCHAR(500) NOT NULL UNIQUE,
			name TEXT NOT NULL,
			source_type VARCHAR(64) NOT NULL,
			scrape_config TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			last_scraped TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	},
	eventUpsert: `ON CONFLICT (source_url, source_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			venue_id = EXCLUDED.venue_id,
			industries = EXCLUDED.industries,
			event_type = EXCLUDED.event_type,
			updated_at = EXCLUDED.updated_at`,
	sourceUpsert: `ON CONFLICT (url) DO UPDATE SET
			name = EXCLUDED.name,
			source_type = EXCLUDED.source_type,
			scrape_config = EXCLUDED.scrape_config,
			active = EXCLUDED.active,
			last_scraped = COALESCE(EXCLUDED.last_scraped, event_sources.last_scraped)`,
}

var mysqlDialect = dialect{
	name: DriverMySQL,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS venues (
			id VARCHAR(36) PRIMARY KEY,
			name TEXT NOT NULL,
			address VARCHAR(255) NOT NULL,
			city VARCHAR(128) NOT NULL,
			state VARCHAR(32) NOT NULL,
			zip VARCHAR(16) NOT NULL DEFAULT '',
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			created_at DATETIME(3) NOT NULL,
			updated_at DATETIME(3) NOT NULL,
			UNIQUE KEY uq_venue_address (address, city, state)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(36) PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			start_time DATETIME(3) NULL,
			end_time DATETIME(3) NULL,
			venue_id VARCHAR(36) NULL,
			industries TEXT NOT NULL,
			event_type VARCHAR(64) NOT NULL,
			source_url VARCHAR(500) NOT NULL,
			source_id VARCHAR(255) NOT NULL,
			created_at DATETIME(3) NOT NULL,
			updated_at DATETIME(3) NOT NULL,
			UNIQUE KEY uq_event_source (source_url, source_id),
			FOREIGN KEY (venue_id) REFERENCES venues(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS event_sources (
			id VARCHAR(36) PRIMARY KEY,
			url VARCHAR(500) NOT NULL,
			name TEXT NOT NULL,
			source_type VARCHAR(64) NOT NULL,
			scrape_config TEXT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			last_scraped DATETIME(3) NULL,
			created_at DATETIME(3) NOT NULL,
			UNIQUE KEY uq_source_url (url)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	eventUpsert: `ON DUPLICATE KEY UPDATE
			title = VALUES(title),
			description = VALUES(description),
			start_time = VALUES(start_time),
			end_time = VALUES(end_time),
			venue_id = VALUES(venue_id),
			industries = VALUES(industries),
			event_type = VALUES(event_type),
			updated_at = VALUES(updated_at)`,
	sourceUpsert: `ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			source_type = VALUES(source_type),
			scrape_config = VALUES(scrape_config),
			active = VALUES(active),
			last_scraped = COALESCE(VALUES(last_scraped), last_scraped)`,
}
