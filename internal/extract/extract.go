package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/logger"
)

// PlaceholderCount is how many events are synthesized for an empty page
const PlaceholderCount = 3

// Extractor turns page HTML into scraped events
type Extractor interface {
	Extract(html string, pageURL string) ([]event.ScrapedEvent, error)
}

// Options control date handling and the empty-page fallback
type Options struct {
	Location     *time.Location
	DatePolicy   event.DatePolicy
	Placeholders bool
	Now          func() time.Time

	// OnBlockError, when set, is called for every skipped block
	OnBlockError func(pageURL string, err error)
}

// DefaultOptions parses dates in local time, defaults bad dates to now and
// synthesizes placeholders for empty pages
func DefaultOptions() Options {
	return Options{
		Location:     time.Local,
		DatePolicy:   event.PolicyDefaultNow,
		Placeholders: true,
		Now:          time.Now,
	}
}

func (o Options) normalized() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.DatePolicy == "" {
		o.DatePolicy = event.PolicyDefaultNow
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ProfileExtractor extracts events using a Profile
type ProfileExtractor struct {
	profile Profile
	opts    Options
}

// NewProfileExtractor creates an extractor for one profile
func NewProfileExtractor(profile Profile, opts Options) *ProfileExtractor {
	return &ProfileExtractor{profile: profile, opts: opts.normalized()}
}

// Extract finds event blocks with the primary selectors, then the fallback
// selectors. A block that fails to extract is logged and skipped. When the
// page yields nothing, placeholder events are returned if enabled.
func (x *ProfileExtractor) Extract(html string, pageURL string) ([]event.ScrapedEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	blocks := findBlocks(doc, x.profile.BlockSelectors)
	if blocks.Length() == 0 {
		blocks = findBlocks(doc, x.profile.FallbackSelectors)
	}

	now := x.opts.Now()
	events := make([]event.ScrapedEvent, 0, blocks.Length())
	seen := make(map[string]bool)

	blocks.Each(func(i int, block *goquery.Selection) {
		evt, err := x.extractBlock(block, now)
		if err != nil {
			logger.Warn("Skipping event block", logger.Fields{
				"profile":  x.profile.Name,
				"page_url": pageURL,
				"block":    i,
				"error":    err.Error(),
			})
			if x.opts.OnBlockError != nil {
				x.opts.OnBlockError(pageURL, err)
			}
			return
		}
		key := event.SourceID(evt.Title, evt.IdentityStart())
		if seen[key] {
			return
		}
		seen[key] = true
		events = append(events, evt)
	})

	if len(events) == 0 && x.opts.Placeholders {
		logger.Info("No events found, using placeholders", logger.Fields{
			"profile":  x.profile.Name,
			"page_url": pageURL,
			"blocks":   blocks.Length(),
		})
		return Placeholders(x.profile, now.In(x.opts.Location)), nil
	}
	return events, nil
}

func (x *ProfileExtractor) extractBlock(block *goquery.Selection, now time.Time) (evt event.ScrapedEvent, err error) {
	// A panic while reading one block only skips that block
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting block: %v", r)
		}
	}()

	p := x.profile

	title := fieldText(block, p.TitleSelector)
	if title == "" {
		title = p.DefaultTitle
	}
	description := fieldText(block, p.DescriptionSelector)
	if description == "" || description == title {
		description = p.DefaultDescription
	}

	dateText := fieldText(block, p.DateSelector)
	if dateText == "" {
		if dt, ok := block.Find("time[datetime]").First().Attr("datetime"); ok {
			dateText = strings.Replace(dt, "T", " ", 1)
		}
	}
	timeText := fieldText(block, p.TimeSelector)

	sched, err := event.ResolveSchedule(dateText, timeText, p.Layouts, x.opts.Location, x.opts.DatePolicy, now)
	if err != nil {
		return event.ScrapedEvent{}, err
	}

	location := p.defaultLocation()
	if parsed, ok := ParseLocation(fieldText(block, p.LocationSelector)); ok {
		location = parsed
	}

	return event.ScrapedEvent{
		Title:         title,
		Description:   description,
		Start:         sched.Start,
		End:           sched.End,
		Location:      location,
		Industries:    event.DefaultIndustries(),
		EventType:     event.DefaultEventType,
		DateDefaulted: sched.Defaulted,
	}, nil
}

// Placeholders synthesizes PlaceholderCount events at the profile's default
// venue, starting at 09:00 on each of the days after now
func Placeholders(p Profile, now time.Time) []event.ScrapedEvent {
	events := make([]event.ScrapedEvent, 0, PlaceholderCount)
	description := p.DefaultDescription
	if description == "" {
		description = "Check the event calendar for details."
	}
	for i := 1; i <= PlaceholderCount; i++ {
		start := time.Date(now.Year(), now.Month(), now.Day()+i, 9, 0, 0, 0, now.Location())
		events = append(events, event.ScrapedEvent{
			Title:       p.DefaultTitle,
			Description: description,
			Start:       start,
			End:         start.Add(event.DefaultDuration),
			Location:    p.defaultLocation(),
			Industries:  event.DefaultIndustries(),
			EventType:   event.DefaultEventType,
			Placeholder: true,
		})
	}
	return events
}

// findBlocks returns the matches of the first selector that matches anything
func findBlocks(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return doc.Find("netnav-none")
}

func fieldText(block *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return cleanText(block.Find(selector).First().Text())
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
