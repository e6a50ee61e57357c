// Package cli implements the command-line interface for netnav.
//
// The cli package provides the Cobra-based CLI: serving the HTTP trigger,
// scraping a single page or every active source, managing sources, and
// listing or exporting stored events. Scrape results can be printed as text
// or JSON and sorted by date, title or city.
package cli
