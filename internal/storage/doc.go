// Package storage persists venues, events and event sources.
//
// Store is the interface the pipeline depends on. FileStore keeps everything
// in a single JSON snapshot under a data directory and is the default for
// local use. SQLStore backs the same interface with PostgreSQL or MySQL.
// Lookups that find nothing return ErrNotFound.
package storage
