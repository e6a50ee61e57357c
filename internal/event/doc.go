// Package event provides the domain types shared by the NetNav scraping pipeline.
//
// A ScrapedEvent is produced by an extractor and lives only for one scrape
// invocation. Venue, Event and EventSource are the persisted records. Each
// Event carries a provenance pair (SourceURL, SourceID) where SourceID is
// derived deterministically from the title and start time, so re-scraping an
// unchanged page resolves to the same rows.
package event
