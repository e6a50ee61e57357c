// Package extract locates event blocks in chamber-of-commerce HTML and turns
// them into event.ScrapedEvent records.
//
// Each supported site is described by a Profile: the CSS selectors that find
// event blocks (a primary set and a looser fallback set), the selectors for
// each field inside a block, and the defaults used when a field is missing.
// A Registry maps page hostnames to profiles; unknown hosts get the generic
// profile. When no block is found at all, a profile can synthesize a small
// set of placeholder events at its default venue.
package extract
