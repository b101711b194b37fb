package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/analysis"
	"github.com/pfrederiksen/parkrun-stats/internal/calendar"
	"github.com/pfrederiksen/parkrun-stats/internal/export"
	"github.com/pfrederiksen/parkrun-stats/internal/location"
	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
	"github.com/pfrederiksen/parkrun-stats/internal/stats"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// athleteResponse is the body of GET /athletes/{id}.
type athleteResponse struct {
	ID          string                  `json:"id"`
	URL         string                  `json:"url"`
	FetchedAt   time.Time               `json:"fetched_at"`
	Filter      string                  `json:"filter"`
	Profile     scraper.Profile         `json:"profile"`
	Summary     []stats.SummaryLine     `json:"summary"`
	AnnualBests []stats.AnnualBest      `json:"annual_bests"`
	Results     []result.DisplayRow     `json:"results"`
	Defects     []result.Defect         `json:"defects,omitempty"`
	Locations   []stats.LocationSummary `json:"locations"`
	Totals      stats.Totals            `json:"totals"`
}

// view runs the pipeline and applies the request's filter and order.
func (s *Server) view(w http.ResponseWriter, r *http.Request) (*analysis.Athlete, *analysis.View, bool) {
	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, err)
		return nil, nil, false
	}
	order, err := parseOrder(q)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, err)
		return nil, nil, false
	}

	athlete, err := s.analyzer.Analyze(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	v, err := athlete.View(f, order, s.now())
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	return athlete, v, true
}

func (s *Server) handleAthlete(w http.ResponseWriter, r *http.Request) {
	athlete, v, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, athleteResponse{
		ID:          athlete.ID,
		URL:         athlete.URL,
		FetchedAt:   athlete.FetchedAt,
		Filter:      v.Filter,
		Profile:     v.Profile,
		Summary:     athlete.Summary,
		AnnualBests: athlete.AnnualBests,
		Results:     v.Display,
		Defects:     athlete.Results.Defects,
		Locations:   v.Locations,
		Totals:      v.Totals,
	})
}

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	_, v, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.Monthly)
}

func (s *Server) handleAthleteLocations(w http.ResponseWriter, r *http.Request) {
	_, v, ok := s.view(w, r)
	if !ok {
		return
	}
	if s.locations == nil {
		writeJSON(w, http.StatusOK, v.Locations)
		return
	}

	locs, err := s.locations.Fetch(r.Context())
	if err != nil {
		// The ranking is still useful without coordinates.
		s.log.Warn("location feed unavailable", logger.Fields{"request_id": RequestID(r.Context()), "error": err.Error()})
		writeJSON(w, http.StatusOK, v.Locations)
		return
	}
	writeJSON(w, http.StatusOK, location.NewIndex(locs).Join(v.Locations))
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	athlete, v, ok := s.view(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(athlete.ID)))
	if err := export.WriteCSV(w, v.Display); err != nil {
		s.log.Error("writing csv", logger.Fields{"request_id": RequestID(r.Context())}, err)
	}
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	athlete, v, ok := s.view(w, r)
	if !ok {
		return
	}

	opts := calendar.Options{Stamp: athlete.FetchedAt, URL: athlete.URL}
	if s.locations != nil {
		if locs, err := s.locations.Fetch(r.Context()); err == nil {
			opts.Locations = location.NewIndex(locs)
		}
	}

	cal := calendar.Build(athlete.ID, athlete.Profile, v.Rows, opts)
	w.Header().Set("Content-Type", calendar.ContentType)
	if err := calendar.Write(w, cal); err != nil {
		s.log.Error("writing calendar", logger.Fields{"request_id": RequestID(r.Context())}, err)
	}
}

func (s *Server) handleEventResults(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzer.EventResults(r.Context(), r.PathValue("event"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	if s.locations == nil {
		writeError(w, r, http.StatusNotImplemented, CodeNotImplemented, fmt.Errorf("no location feed configured"))
		return
	}
	locs, err := s.locations.Fetch(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, location.NewIndex(locs).All())
}
