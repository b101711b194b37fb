// Package server exposes the athlete pipeline as a small JSON HTTP API.
//
// Routes:
//
//	GET /athletes/{id}                 profile, rows, display, aggregates
//	GET /athletes/{id}/attendance      monthly attendance grid
//	GET /athletes/{id}/locations       location summaries (?order_by=time|events)
//	GET /athletes/{id}/results.csv     flat-file download
//	GET /athletes/{id}/results.ics     iCalendar feed of runs
//	GET /events/{event}/latest         latest results of one event
//	GET /locations                     event-location feed
//	GET /healthz                       liveness
//	GET /metrics                       Prometheus metrics
//
// Athlete routes accept the filter query parameters event (repeatable),
// pb_only, from, to, range and last.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/analysis"
	"github.com/pfrederiksen/parkrun-stats/internal/location"
	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Analyzer runs the fetch-and-normalize pipeline. *analysis.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, athleteID string) (*analysis.Athlete, error)
	EventResults(ctx context.Context, event string) (*analysis.EventResults, error)
}

// LocationSource loads the event-location feed. *location.Client satisfies it.
type LocationSource interface {
	Fetch(ctx context.Context) ([]location.Location, error)
}

// Server holds the handler dependencies.
type Server struct {
	analyzer  Analyzer
	locations LocationSource
	metrics   *metrics.Manager
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics manager serving /metrics and recording requests.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the current time used for attendance grids.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Server. locations may be nil, in which case /locations is
// unavailable and calendars carry plain event names.
func New(analyzer Analyzer, locations LocationSource, opts ...Option) *Server {
	s := &Server{
		analyzer:  analyzer,
		locations: locations,
		metrics:   metrics.Default(),
		log:       logger.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with request IDs, logging and metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return s.requestID(mux)
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.instrument("healthz", s.handleHealth))
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /locations", s.instrument("locations", s.handleLocations))
	mux.HandleFunc("GET /events/{event}/latest", s.instrument("event_latest", s.handleEventResults))
	mux.HandleFunc("GET /athletes/{id}", s.instrument("athlete", s.handleAthlete))
	mux.HandleFunc("GET /athletes/{id}/attendance", s.instrument("athlete_attendance", s.handleAttendance))
	mux.HandleFunc("GET /athletes/{id}/locations", s.instrument("athlete_locations", s.handleAthleteLocations))
	mux.HandleFunc("GET /athletes/{id}/results.csv", s.instrument("athlete_csv", s.handleCSV))
	mux.HandleFunc("GET /athletes/{id}/results.ics", s.instrument("athlete_ics", s.handleICS))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", logger.Fields{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
