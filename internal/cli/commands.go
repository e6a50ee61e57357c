package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netnav/netnav/internal/api"
	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/logger"
	"github.com/netnav/netnav/internal/metrics"
	"github.com/netnav/netnav/internal/pipeline"
	"github.com/netnav/netnav/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP scrape trigger and event API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			m := metrics.New()
			p := pipeline.FromConfig(a.cfg, store, m)
			server := api.NewServer(p, store, m, a.cfg.Server.AdminToken)

			srv := a.cfg.Server
			return server.ListenAndServe(ctx, srv.ListenAddr, srv.ReadTimeout, srv.WriteTimeout)
		},
	}
}

// outputFlags are shared by the commands that print events
type outputFlags struct {
	format string
	sort   string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&o.sort, "sort", "date", "Sort events by: date, title or city")
}

func (o *outputFlags) parse() (OutputFormat, SortOrder, error) {
	format, err := ParseFormat(o.format)
	if err != nil {
		return "", "", err
	}
	order, err := ParseSortOrder(o.sort)
	if err != nil {
		return "", "", err
	}
	return format, order, nil
}

func newScrapeCmd(a *app) *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Scrape one page with the site heuristics for its host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, order, err := out.parse()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := pipeline.FromConfig(a.cfg, store, nil).Run(ctx, args[0])
			if err != nil {
				return fmt.Errorf("scraping %s: %w", args[0], err)
			}
			return a.writeResults(cmd, store, []*pipeline.Result{result}, format, order)
		},
	}
	out.register(cmd)
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape every active source in turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, order, err := out.parse()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := pipeline.FromConfig(a.cfg, store, nil).RunSources(ctx)
			if err != nil {
				return fmt.Errorf("running sources: %w", err)
			}
			logger.Info("Run finished", logger.Fields{"sources": len(results)})
			return a.writeResults(cmd, store, results, format, order)
		},
	}
	out.register(cmd)
	return cmd
}

func (a *app) writeResults(cmd *cobra.Command, store storage.Store, results []*pipeline.Result, format OutputFormat, order SortOrder) error {
	output := &OutputResult{ScrapedAt: time.Now().UTC()}
	for _, r := range results {
		output.Sources = append(output.Sources, r.SourceURL)
		output.Events = append(output.Events, r.Events...)
		output.Created += r.Created
		output.Updated += r.Updated
		output.Failed += r.Failed
		output.Placeholders += r.Placeholders
	}
	output.EventCount = len(output.Events)

	venues, err := loadVenues(cmd.Context(), store, output.Events)
	if err != nil {
		return err
	}
	output.venues = venues
	sortEvents(output.Events, order, venues)

	if err := WriteOutput(cmd.OutOrStdout(), output, format, a.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// loadVenues fetches the venues referenced by events, keyed by ID
func loadVenues(ctx context.Context, store storage.Store, events []*event.Event) (map[string]*event.Venue, error) {
	venues := make(map[string]*event.Venue)
	for _, e := range events {
		if e.VenueID == "" {
			continue
		}
		if _, ok := venues[e.VenueID]; ok {
			continue
		}
		v, err := store.GetVenue(ctx, e.VenueID)
		if err != nil {
			return nil, fmt.Errorf("loading venue %s: %w", e.VenueID, err)
		}
		venues[e.VenueID] = v
	}
	return venues, nil
}
