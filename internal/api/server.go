package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/netnav/netnav/internal/logger"
	"github.com/netnav/netnav/internal/metrics"
	"github.com/netnav/netnav/internal/pipeline"
	"github.com/netnav/netnav/internal/storage"
)

// AdminCookie is the cookie name accepted in place of the Authorization header
const AdminCookie = "netnav_admin"

// Scraper runs the pipeline for one URL
type Scraper interface {
	Run(ctx context.Context, url string) (*pipeline.Result, error)
}

// Server holds the HTTP handlers and their dependencies
type Server struct {
	scraper    Scraper
	store      storage.Store
	metrics    *metrics.Metrics
	adminToken string
	nowFunc    func() time.Time
}

// NewServer creates a Server. An empty adminToken leaves mutating endpoints open.
func NewServer(scraper Scraper, store storage.Store, m *metrics.Metrics, adminToken string) *Server {
	return &Server{
		scraper:    scraper,
		store:      store,
		metrics:    m,
		adminToken: adminToken,
		nowFunc:    time.Now,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/scrape", s.requireAdmin(http.HandlerFunc(s.handleScrape)))
	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("GET /api/events/{id}/ics", s.handleEventICS)
	mux.HandleFunc("GET /api/sources", s.handleListSources)
	mux.Handle("POST /api/sources", s.requireAdmin(http.HandlerFunc(s.handleAddSource)))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("HTTP server shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" || s.isAdmin(r) {
			next.ServeHTTP(w, r)
			return
		}
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	})
}

func (s *Server) isAdmin(r *http.Request) bool {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && tokenMatches(token, s.adminToken) {
		return true
	}
	if c, err := r.Cookie(AdminCookie); err == nil && tokenMatches(c.Value, s.adminToken) {
		return true
	}
	return false
}

func tokenMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("HTTP request", logger.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(started).Milliseconds(),
		})
	})
}
