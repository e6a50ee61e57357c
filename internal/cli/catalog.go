package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/netnav/netnav/internal/calendar"
	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/persist"
	"github.com/netnav/netnav/internal/storage"
)

func newSourcesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage scraped sources",
	}
	cmd.AddCommand(newSourcesAddCmd(a), newSourcesListCmd(a))
	return cmd
}

func newSourcesAddCmd(a *app) *cobra.Command {
	var (
		name       string
		configJSON string
		configFile string
		inactive   bool
	)

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add or update a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configJSON != "" && configFile != "" {
				return fmt.Errorf("--scrape-config and --scrape-config-file are mutually exclusive")
			}

			var scrapeConfig *event.ScrapeConfig
			var err error
			switch {
			case configJSON != "":
				scrapeConfig, err = event.ParseScrapeConfig([]byte(configJSON))
			case configFile != "":
				scrapeConfig, err = loadScrapeConfigFile(configFile)
			}
			if err != nil {
				return fmt.Errorf("invalid scrape config: %w", err)
			}

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			src := &event.EventSource{
				URL:          strings.TrimSpace(args[0]),
				Name:         name,
				SourceType:   event.SourceTypeWebsite,
				ScrapeConfig: scrapeConfig,
				Active:       !inactive,
			}
			if src.Name == "" {
				src.Name = persist.Hostname(src.URL)
			}
			if err := store.SaveSource(ctx, src); err != nil {
				return fmt.Errorf("saving source: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved source %s (%s)\n", src.Name, src.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the hostname)")
	cmd.Flags().StringVar(&configJSON, "scrape-config", "", "Scrape config as JSON")
	cmd.Flags().StringVar(&configFile, "scrape-config-file", "", "Path to a YAML scrape config")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Store the source without scraping it on run")
	return cmd
}

// loadScrapeConfigFile reads a YAML scrape config and validates it
func loadScrapeConfigFile(path string) (*event.ScrapeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg event.ScrapeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newSourcesListCmd(a *app) *cobra.Command {
	var (
		format     string
		activeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			sources, err := store.ListSources(ctx, activeOnly)
			if err != nil {
				return fmt.Errorf("listing sources: %w", err)
			}

			w := cmd.OutOrStdout()
			if outFormat == FormatJSON {
				if sources == nil {
					sources = []*event.EventSource{}
				}
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")
				return encoder.Encode(sources)
			}

			if len(sources) == 0 {
				fmt.Fprintln(w, "No sources found.")
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tURL\tCONFIG\tACTIVE\tLAST SCRAPED")
			for _, s := range sources {
				configType := string(event.ScrapeConfigSite)
				if s.ScrapeConfig != nil {
					configType = string(s.ScrapeConfig.Type)
				}
				last := "never"
				if s.LastScraped != nil {
					last = s.LastScraped.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", s.Name, s.URL, configType, s.Active, last)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list active sources")
	return cmd
}

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect stored events",
	}
	cmd.AddCommand(newEventsListCmd(a), newEventsICSCmd(a))
	return cmd
}

// filterFlags select stored events
type filterFlags struct {
	source   string
	city     string
	from     string
	limit    int
	upcoming bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "", "Only events scraped from this URL")
	cmd.Flags().StringVar(&f.city, "city", "", "Only events whose venue is in this city")
	cmd.Flags().StringVar(&f.from, "from", "", "Only events starting on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum number of events (0 for all)")
	cmd.Flags().BoolVar(&f.upcoming, "upcoming", false, "Only events that have not started yet, or have no start time")
}

func (f *filterFlags) filter() (storage.EventFilter, error) {
	filter := storage.EventFilter{SourceURL: f.source, City: f.city, Limit: f.limit}
	if f.upcoming {
		// limit is applied after the upcoming check in keep
		filter.Limit = 0
	}
	if f.from != "" {
		t, err := time.ParseInLocation("2006-01-02", f.from, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --from %q: want YYYY-MM-DD", f.from)
		}
		filter.From = t
	}
	return filter, nil
}

// keep drops events the store-side filter cannot express
func (f *filterFlags) keep(events []*event.Event, now time.Time) []*event.Event {
	if !f.upcoming {
		return events
	}
	out := events[:0]
	for _, e := range events {
		if e.IsUpcoming(now) {
			out = append(out, e)
		}
	}
	if f.limit > 0 && len(out) > f.limit {
		out = out[:f.limit]
	}
	return out
}

func newEventsListCmd(a *app) *cobra.Command {
	var (
		out  outputFlags
		filt filterFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, order, err := out.parse()
			if err != nil {
				return err
			}
			filter, err := filt.filter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := store.ListEvents(ctx, filter)
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}
			events = filt.keep(events, time.Now())
			venues, err := loadVenues(ctx, store, events)
			if err != nil {
				return err
			}
			sortEvents(events, order, venues)

			result := &OutputResult{
				ScrapedAt:  time.Now().UTC(),
				Events:     events,
				EventCount: len(events),
				venues:     venues,
				stored:     true,
			}
			if filter.SourceURL != "" {
				result.Sources = []string{filter.SourceURL}
			}
			return WriteOutput(cmd.OutOrStdout(), result, format, a.verbose)
		},
	}
	out.register(cmd)
	filt.register(cmd)
	return cmd
}

func newEventsICSCmd(a *app) *cobra.Command {
	var (
		all        bool
		outputPath string
		filt       filterFlags
	)

	cmd := &cobra.Command{
		Use:   "ics [id]",
		Short: "Export stored events as iCalendar",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var events []*event.Event
			if all {
				filter, err := filt.filter()
				if err != nil {
					return err
				}
				if events, err = store.ListEvents(ctx, filter); err != nil {
					return fmt.Errorf("listing events: %w", err)
				}
				events = filt.keep(events, time.Now())
				if len(events) == 0 {
					return fmt.Errorf("no events match")
				}
			} else {
				evt, err := store.GetEvent(ctx, args[0])
				if err != nil {
					return fmt.Errorf("loading event %s: %w", args[0], err)
				}
				events = []*event.Event{evt}
			}

			venues, err := loadVenues(ctx, store, events)
			if err != nil {
				return err
			}

			now := time.Now()
			var ics string
			if all {
				ics = calendar.GenerateBulkICS(events, venues, "NetNav Events", now)
			} else {
				ics = calendar.GenerateICS(events[0], venues[events[0].VenueID], now)
			}

			if outputPath == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), ics)
				return err
			}
			return os.WriteFile(outputPath, []byte(ics), 0644)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Export every matching event into one calendar")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to file instead of stdout")
	filt.register(cmd)
	return cmd
}
