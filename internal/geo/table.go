// Package geo resolves venue coordinates.
//
// The default path is a static city table embedded in the binary. An optional
// HTTP geocoder can be consulted for cities the table does not know; its
// answers are cached with a TTL.
package geo

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/jszwec/csvutil"
)

//go:embed cities.csv
var citiesCSV []byte

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Fallback is the geographic center of North Carolina, used for unknown cities
var Fallback = Coordinates{Latitude: 35.7596, Longitude: -79.0193}

type cityRow struct {
	City      string  `csv:"city"`
	State     string  `csv:"state"`
	Latitude  float64 `csv:"latitude"`
	Longitude float64 `csv:"longitude"`
}

// Table is a static city → coordinates lookup
type Table struct {
	byCityState map[string]Coordinates
	byCity      map[string]Coordinates
}

// LoadTable decodes a CSV with city,state,latitude,longitude columns
func LoadTable(data []byte) (*Table, error) {
	var rows []cityRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding city table: %w", err)
	}

	t := &Table{
		byCityState: make(map[string]Coordinates, len(rows)),
		byCity:      make(map[string]Coordinates, len(rows)),
	}
	for _, r := range rows {
		c := Coordinates{Latitude: r.Latitude, Longitude: r.Longitude}
		t.byCityState[tableKey(r.City, r.State)] = c
		// First row wins for a bare city name
		if _, ok := t.byCity[normalizeCity(r.City)]; !ok {
			t.byCity[normalizeCity(r.City)] = c
		}
	}
	return t, nil
}

// DefaultTable returns the embedded North Carolina city table
func DefaultTable() *Table {
	t, err := LoadTable(citiesCSV)
	if err != nil {
		panic(err) // embedded data is fixed at build time
	}
	return t
}

// Lookup finds a city. State is optional; when given it must match.
func (t *Table) Lookup(city, state string) (Coordinates, bool) {
	if state != "" {
		c, ok := t.byCityState[tableKey(city, state)]
		return c, ok
	}
	c, ok := t.byCity[normalizeCity(city)]
	return c, ok
}

// Size returns the number of cities in the table
func (t *Table) Size() int {
	return len(t.byCityState)
}

func tableKey(city, state string) string {
	return normalizeCity(city) + "|" + strings.ToUpper(strings.TrimSpace(state))
}

func normalizeCity(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), " ")
}
