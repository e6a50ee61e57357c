// Package fetch retrieves raw HTML for event source pages.
//
// Fetcher issues a plain HTTP GET with a desktop-browser User-Agent and fails
// with *FetchError on any non-2xx response. It does not retry.
// Renderer loads a page in headless Chrome for sources whose scrape config
// asks for JavaScript rendering.
package fetch
