package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultUserAgent is a standard desktop Chrome User-Agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// FetchError reports a non-2xx response
type FetchError struct {
	URL        string
	StatusCode int
	Status     string // reason phrase, e.g. "Not Found"
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %d %s", e.URL, e.StatusCode, e.Status)
}

// Source returns the HTML of a page
type Source interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Fetcher handles fetching pages over HTTP
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a Fetcher using the platform default HTTP client.
// An empty userAgent selects DefaultUserAgent.
func New(userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:    http.DefaultClient,
		userAgent: userAgent,
	}
}

// Fetch performs a GET and returns the body as text
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(body), nil
}
