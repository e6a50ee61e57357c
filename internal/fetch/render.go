package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderTimeout bounds a single headless page load
const RenderTimeout = 60 * time.Second

// Renderer loads pages in headless Chrome and returns the rendered DOM
type Renderer struct {
	userAgent    string
	waitSelector string
	timeout      time.Duration
}

// NewRenderer creates a Renderer. When waitSelector is set the page is
// captured only after that element becomes visible.
func NewRenderer(userAgent, waitSelector string) *Renderer {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Renderer{
		userAgent:    userAgent,
		waitSelector: waitSelector,
		timeout:      RenderTimeout,
	}
}

// Fetch navigates to url and returns the outer HTML of the document
func (r *Renderer) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(r.userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if r.waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(r.waitSelector, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}
	return html, nil
}
