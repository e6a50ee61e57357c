// Package api serves the NetNav HTTP interface: the scrape trigger, read-only
// event and source listings, iCalendar export, health and metrics.
//
// Mutating endpoints are guarded by an optional admin token accepted either
// as a Bearer Authorization header or as the netnav_admin cookie.
package api
