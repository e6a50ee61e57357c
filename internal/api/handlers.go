package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/netnav/netnav/internal/calendar"
	"github.com/netnav/netnav/internal/event"
	"github.com/netnav/netnav/internal/logger"
	"github.com/netnav/netnav/internal/persist"
	"github.com/netnav/netnav/internal/storage"
)

type scrapeRequest struct {
	URL string `json:"url"`
}

type scrapeResponse struct {
	Success         bool           `json:"success"`
	EventsProcessed int            `json:"eventsProcessed"`
	Events          []*event.Event `json:"events"`
}

// handleScrape runs the pipeline for the posted URL
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		respondWithError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if err := validateURL(req.URL); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.scraper.Run(r.Context(), req.URL)
	if err != nil {
		logger.Error("Scrape request failed", logger.Fields{"source_url": req.URL}, err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	events := result.Events
	if events == nil {
		events = []*event.Event{}
	}
	respondWithJSON(w, http.StatusOK, scrapeResponse{
		Success:         true,
		EventsProcessed: result.EventsProcessed(),
		Events:          events,
	})
}

// handleListEvents lists stored events filtered by sourceUrl, city and from
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.EventFilter{
		SourceURL: q.Get("sourceUrl"),
		City:      q.Get("city"),
	}

	if from := q.Get("from"); from != "" {
		t, err := parseFrom(from)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.From = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	events, err := s.store.ListEvents(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	if events == nil {
		events = []*event.Event{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// handleEventICS returns one event as an iCalendar file
func (s *Server) handleEventICS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	evt, err := s.store.GetEvent(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load event")
		return
	}

	var venue *event.Venue
	if evt.VenueID != "" {
		venue, err = s.store.GetVenue(r.Context(), evt.VenueID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusInternalServerError, "Failed to load venue")
			return
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="netnav-%s.ics"`, evt.ID))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(calendar.GenerateICS(evt, venue, s.nowFunc())))
}

// handleListSources lists every configured source
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list sources")
		return
	}
	if sources == nil {
		sources = []*event.EventSource{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sources": sources,
		"count":   len(sources),
	})
}

type addSourceRequest struct {
	URL          string          `json:"url"`
	Name         string          `json:"name"`
	Active       *bool           `json:"active"`
	ScrapeConfig json.RawMessage `json:"scrapeConfig"`
}

// handleAddSource creates or updates a source with a validated scrape config
func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		respondWithError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if err := validateURL(req.URL); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := event.ParseScrapeConfig(req.ScrapeConfig)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	src := &event.EventSource{
		URL:          req.URL,
		Name:         req.Name,
		SourceType:   event.SourceTypeWebsite,
		ScrapeConfig: cfg,
		Active:       req.Active == nil || *req.Active,
	}
	if src.Name == "" {
		src.Name = persist.Hostname(req.URL)
	}

	if err := s.store.SaveSource(r.Context(), src); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save source")
		return
	}
	respondWithJSON(w, http.StatusCreated, src)
}

// handleHealth reports whether the store is reachable
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		logger.Warn("Health check failed", logger.Fields{"error": err.Error()})
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "storage unavailable",
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: must be an absolute http(s) URL", raw)
	}
	return nil
}

func parseFrom(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("from must be RFC 3339 or YYYY-MM-DD, got %q", s)
}
