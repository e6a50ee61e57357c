package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/netnav/netnav/internal/event"
)

const listingPage = `<html><body>
	<div class="event">
		<h3 class="event-title">Young Professionals Mixer</h3>
		<p class="description">Drinks and introductions.</p>
		<span class="event-date">April 3, 2025</span>
		<span class="event-time">6:00 PM</span>
		<span class="location">Boxyard RTP, 900 Park Offices Dr, Durham, NC 27709</span>
	</div>
	<div class="event">
		<h3 class="event-title">Annual Meeting</h3>
		<span class="event-date">March 28, 2025</span>
	</div>
</body></html>`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "netnav.yaml")
	cfg := fmt.Sprintf(`storage:
  driver: file
  data_dir: %s
scrape:
  timezone: UTC
  placeholders: false
logging:
  level: warn
`, filepath.Join(dir, "data"))
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath, "--env-file", ""}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestScrapeCommandJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	defer srv.Close()

	configPath := writeConfig(t)
	out, err := execute(t, configPath, "scrape", srv.URL+"/events", "--format", "json", "--sort", "date")
	if err != nil {
		t.Fatalf("scrape error = %v", err)
	}

	var result OutputResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.EventCount != 2 || result.Created != 2 {
		t.Fatalf("result = %+v", result)
	}
	if result.Events[0].Title != "Annual Meeting" {
		t.Errorf("first event = %q, want Annual Meeting (date order)", result.Events[0].Title)
	}

	// A second scrape of the same page updates instead of inserting
	out, err = execute(t, configPath, "scrape", srv.URL+"/events", "--format", "json")
	if err != nil {
		t.Fatalf("second scrape error = %v", err)
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if result.Created != 0 || result.Updated != 2 {
		t.Errorf("second result created=%d updated=%d, want 0/2", result.Created, result.Updated)
	}

	out, err = execute(t, configPath, "events", "list", "--sort", "title")
	if err != nil {
		t.Fatalf("events list error = %v", err)
	}
	if !strings.Contains(out, "Total: 2 events") || strings.Index(out, "Annual Meeting") > strings.Index(out, "Young Professionals Mixer") {
		t.Errorf("events list output:\n%s", out)
	}
	if !strings.Contains(out, "Venue: Boxyard RTP, 900 Park Offices Dr, Durham, NC") {
		t.Errorf("events list missing venue line:\n%s", out)
	}

	// Both listed events are in 2025, so none are still upcoming
	out, err = execute(t, configPath, "events", "list", "--upcoming")
	if err != nil {
		t.Fatalf("events list --upcoming error = %v", err)
	}
	if !strings.Contains(out, "No events found.") {
		t.Errorf("events list --upcoming output:\n%s", out)
	}
}

func TestFilterFlagsKeep(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []*event.Event{
		{Title: "Past", Start: now.Add(-time.Hour)},
		{Title: "Undated"},
		{Title: "Soon", Start: now.Add(time.Hour)},
		{Title: "Later", Start: now.Add(48 * time.Hour)},
	}

	f := filterFlags{upcoming: true, limit: 2}
	filter, err := f.filter()
	if err != nil {
		t.Fatalf("filter() error = %v", err)
	}
	if filter.Limit != 0 {
		t.Errorf("store limit = %d, want 0 when --upcoming is set", filter.Limit)
	}

	got := f.keep(append([]*event.Event(nil), events...), now)
	if len(got) != 2 || got[0].Title != "Undated" || got[1].Title != "Soon" {
		t.Errorf("keep() = %v", titles(got))
	}

	if got := (&filterFlags{}).keep(events, now); len(got) != len(events) {
		t.Errorf("keep() without --upcoming dropped events: %v", titles(got))
	}
}

func titles(events []*event.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Title)
	}
	return out
}

func TestScrapeCommandFlags(t *testing.T) {
	configPath := writeConfig(t)

	if _, err := execute(t, configPath, "scrape", "https://example.com", "--format", "xml"); err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("bad format error = %v", err)
	}
	if _, err := execute(t, configPath, "scrape", "https://example.com", "--sort", "state"); err == nil || !strings.Contains(err.Error(), "invalid sort") {
		t.Errorf("bad sort error = %v", err)
	}
	if _, err := execute(t, configPath, "scrape"); err == nil {
		t.Error("scrape without url succeeded")
	}
}

func TestScrapeCommandFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := execute(t, writeConfig(t), "scrape", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("scrape error = %v, want 404", err)
	}
}

func TestSourcesAddAndRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<ul><li class="row"><b>Founders Breakfast</b><i>04/01/2025</i></li></ul>`)
	}))
	defer srv.Close()

	configPath := writeConfig(t)
	scrapeConfig := filepath.Join(t.TempDir(), "selector.yaml")
	yamlConfig := "type: selector\nevent_selector: li.row\ntitle_selector: b\ndate_selector: i\ndate_format: MM/dd/yyyy\n"
	if err := os.WriteFile(scrapeConfig, []byte(yamlConfig), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	out, err := execute(t, configPath, "sources", "add", srv.URL, "--name", "Founders", "--scrape-config-file", scrapeConfig)
	if err != nil {
		t.Fatalf("sources add error = %v", err)
	}
	if !strings.Contains(out, "Saved source Founders") {
		t.Errorf("sources add output = %q", out)
	}

	if _, err := execute(t, configPath, "sources", "add", "https://example.com", "--scrape-config", `{"type":"rss"}`); err == nil {
		t.Error("sources add accepted an unknown config type")
	}

	out, err = execute(t, configPath, "sources", "list")
	if err != nil {
		t.Fatalf("sources list error = %v", err)
	}
	if !strings.Contains(out, "Founders") || !strings.Contains(out, "selector") || !strings.Contains(out, "never") {
		t.Errorf("sources list output:\n%s", out)
	}

	out, err = execute(t, configPath, "run", "--format", "json")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	var result OutputResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if result.EventCount != 1 || result.Events[0].Title != "Founders Breakfast" {
		t.Fatalf("run result = %+v", result)
	}
	want := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !result.Events[0].Start.Equal(want) {
		t.Errorf("Start = %v, want %v", result.Events[0].Start, want)
	}

	out, err = execute(t, configPath, "sources", "list", "--format", "json")
	if err != nil {
		t.Fatalf("sources list error = %v", err)
	}
	var sources []*event.EventSource
	if err := json.Unmarshal([]byte(out), &sources); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(sources) != 1 || sources[0].LastScraped == nil {
		t.Errorf("sources after run = %+v", sources)
	}
}

func TestEventsICS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	defer srv.Close()

	configPath := writeConfig(t)
	out, err := execute(t, configPath, "scrape", srv.URL, "--format", "json")
	if err != nil {
		t.Fatalf("scrape error = %v", err)
	}
	var result OutputResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	id := result.Events[0].ID
	out, err = execute(t, configPath, "events", "ics", id)
	if err != nil {
		t.Fatalf("events ics error = %v", err)
	}
	if !strings.Contains(out, "UID:"+id+"@netnav") {
		t.Errorf("ics output missing UID:\n%s", out)
	}

	bulk := filepath.Join(t.TempDir(), "all.ics")
	if _, err := execute(t, configPath, "events", "ics", "--all", "-o", bulk); err != nil {
		t.Fatalf("events ics --all error = %v", err)
	}
	data, err := os.ReadFile(bulk)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if n := strings.Count(string(data), "BEGIN:VEVENT"); n != 2 {
		t.Errorf("bulk calendar has %d events, want 2", n)
	}

	if _, err := execute(t, configPath, "events", "ics", "missing-id"); err == nil {
		t.Error("events ics succeeded for an unknown id")
	}
}

func TestSortEvents(t *testing.T) {
	venues := map[string]*event.Venue{
		"v-cary":   {ID: "v-cary", City: "Cary"},
		"v-durham": {ID: "v-durham", City: "Durham"},
	}
	march := time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	newEvents := func() []*event.Event {
		return []*event.Event{
			{Title: "zeta Mixer", Start: april, VenueID: "v-durham"},
			{Title: "Alpha Lunch", Start: march, VenueID: "v-durham"},
			{Title: "Undated Forum"},
			{Title: "Beta Breakfast", Start: april, VenueID: "v-cary"},
		}
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortByDate, []string{"Alpha Lunch", "Beta Breakfast", "zeta Mixer", "Undated Forum"}},
		{SortByTitle, []string{"Alpha Lunch", "Beta Breakfast", "Undated Forum", "zeta Mixer"}},
		{SortByCity, []string{"Beta Breakfast", "Alpha Lunch", "zeta Mixer", "Undated Forum"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			events := newEvents()
			sortEvents(events, tt.order, venues)
			for i, want := range tt.want {
				if events[i].Title != want {
					t.Errorf("position %d = %q, want %q", i, events[i].Title, want)
				}
			}
		})
	}
}

func TestParseSortOrderAndFormat(t *testing.T) {
	if o, err := ParseSortOrder(" City "); err != nil || o != SortByCity {
		t.Errorf("ParseSortOrder(City) = %q, %v", o, err)
	}
	if _, err := ParseSortOrder("state"); err == nil {
		t.Error("ParseSortOrder(state) succeeded")
	}
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %q, %v", f, err)
	}
}

func TestWriteOutputText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, &OutputResult{}, FormatText, false); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if buf.String() != "No events found.\n" {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	result := &OutputResult{
		Sources:      []string{"https://durhamchamber.org/events"},
		Events:       []*event.Event{{ID: "e1", Title: "Business After Hours", SourceID: "business-after-hours-", VenueID: "v1"}},
		EventCount:   1,
		Created:      1,
		Placeholders: 1,
		venues:       map[string]*event.Venue{"v1": {Name: "300 W. Morgan Street", Address: "300 W. Morgan Street", City: "Durham", State: "NC"}},
	}
	if err := WriteOutput(&buf, result, FormatText, true); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"(date TBA)",
		"Business After Hours",
		"Venue: 300 W. Morgan Street, Durham, NC",
		"Source ID: business-after-hours-",
		"Total: 1 events",
		"Created: 1, Updated: 0, Failed: 0, Placeholders: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteOutputJSONEmptyEvents(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, &OutputResult{}, FormatJSON, false); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"events": []`) {
		t.Errorf("json output = %s", buf.String())
	}
}
