package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/netnav/netnav/internal/event"
)

// Geocoder looks up coordinates for an address
type Geocoder interface {
	Geocode(ctx context.Context, loc event.Location) (Coordinates, bool, error)
}

// HTTPGeocoder queries a Nominatim-compatible search endpoint
// (GET ?q=...&format=json&limit=1 returning [{"lat":"..","lon":".."}]).
type HTTPGeocoder struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	cache      *Cache
}

// NewHTTPGeocoder creates a geocoder with a response cache
func NewHTTPGeocoder(baseURL string, cacheTTL time.Duration) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		userAgent: "netnav/1.0",
		cache:     NewCache(cacheTTL),
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns coordinates for loc. found is false when the service has no match.
func (g *HTTPGeocoder) Geocode(ctx context.Context, loc event.Location) (Coordinates, bool, error) {
	query := addressQuery(loc)
	if query == "" {
		return Coordinates{}, false, nil
	}

	if coords, found, ok := g.cache.Get(query); ok {
		return coords, found, nil
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, false, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Coordinates{}, false, fmt.Errorf("parsing geocoder response: %w", err)
	}

	if len(results) == 0 {
		g.cache.Set(query, Coordinates{}, false)
		return Coordinates{}, false, nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return Coordinates{}, false, fmt.Errorf("geocoder returned non-numeric coordinates %q,%q", results[0].Lat, results[0].Lon)
	}

	coords := Coordinates{Latitude: lat, Longitude: lon}
	g.cache.Set(query, coords, true)
	return coords, true, nil
}

func addressQuery(loc event.Location) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{loc.Address, loc.City, strings.TrimSpace(loc.State + " " + loc.Zip)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
