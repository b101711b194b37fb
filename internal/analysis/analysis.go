// Package analysis runs the athlete pipeline end to end: fetch the
// all-results page, extract its tables and profile, normalize the results and
// derive the views a presentation layer consumes.
//
// Example usage:
//
//	a := analysis.New(scraper.New(), cfg.BaseURL)
//	athlete, err := a.Analyze(ctx, "A123456")
//	if err != nil {
//	    return err
//	}
//	view, err := athlete.View(filter.New(), stats.OrderByTime, time.Now())
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/filter"
	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
	"github.com/pfrederiksen/parkrun-stats/internal/stats"
)

// ErrInvalidInput marks an athlete ID or event name that cannot form a URL.
var ErrInvalidInput = errors.New("invalid input")

// Fetcher retrieves one page. *scraper.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// Analyzer fetches and normalizes athlete and event pages.
type Analyzer struct {
	fetcher Fetcher
	baseURL string
	strict  bool
	log     *logger.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStrict makes a malformed or duplicate result row fail the analysis.
func WithStrict(strict bool) Option {
	return func(a *Analyzer) {
		a.strict = strict
	}
}

// WithLogger sets the logger. The package default is used otherwise.
func WithLogger(l *logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// New creates an Analyzer against a site base URL such as https://www.parkrun.com.au.
func New(fetcher Fetcher, baseURL string, opts ...Option) *Analyzer {
	a := &Analyzer{
		fetcher: fetcher,
		baseURL: baseURL,
		log:     logger.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Athlete is the complete normalized result of one athlete page.
type Athlete struct {
	ID          string              `json:"id"`
	URL         string              `json:"url"`
	FetchedAt   time.Time           `json:"fetched_at"`
	Profile     scraper.Profile     `json:"profile"`
	Summary     []stats.SummaryLine `json:"summary"`
	AnnualBests []stats.AnnualBest  `json:"annual_bests"`
	Results     *result.Set         `json:"results"`
}

// Analyze fetches an athlete's all-results page and normalizes it. It
// returns either a complete Athlete or an error; errors match the scraper
// and result sentinels (ErrNotFound, ErrUnavailable, ErrSchemaChanged,
// ErrMalformedRow, ErrDuplicateRow) or ErrInvalidInput.
func (a *Analyzer) Analyze(ctx context.Context, athleteID string) (*Athlete, error) {
	id, err := scraper.NormalizeAthleteID(athleteID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	log := a.log.With(logger.Fields{"athlete_id": id})

	url := scraper.AthleteURL(a.baseURL, id)
	page, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Error("fetching athlete page", logger.Fields{"url": url}, err)
		return nil, err
	}
	log.Debug("fetched athlete page", logger.Fields{"bytes": len(page.Body)})

	athlete, err := a.parse(id, page, log)
	if err != nil {
		log.Error("parsing athlete page", nil, err)
		return nil, err
	}

	log.Info("analyzed athlete", logger.Fields{
		"rows":    len(athlete.Results.Rows),
		"defects": len(athlete.Results.Defects),
	})
	return athlete, nil
}

func (a *Analyzer) parse(id string, page *scraper.Page, log *logger.Logger) (*Athlete, error) {
	tables, err := scraper.ExtractAthleteTables(page.Body)
	if err != nil {
		return nil, err
	}
	profile, err := scraper.ExtractProfile(page.Body)
	if err != nil {
		return nil, err
	}
	bests, err := stats.AnnualBests(tables.AnnualBests)
	if err != nil {
		return nil, &scraper.SchemaError{Problems: []string{err.Error()}}
	}

	set, err := result.Normalize(RawRows(tables.AllResults), result.Options{Strict: a.strict, Log: log})
	if err != nil {
		return nil, err
	}

	return &Athlete{
		ID:          id,
		URL:         page.URL,
		FetchedAt:   page.FetchedAt,
		Profile:     *profile,
		Summary:     stats.SummaryStats(tables.SummaryStats),
		AnnualBests: bests,
		Results:     set,
	}, nil
}

// RawRows reads the all-results table into raw rows, in table order.
func RawRows(t scraper.Table) []result.RawRow {
	out := make([]result.RawRow, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = result.RawRow{
			Event:    row[scraper.ColEvent],
			RunDate:  row[scraper.ColRunDate],
			Time:     row[scraper.ColTime],
			Position: row[scraper.ColPosition],
			AgeGrade: row[scraper.ColAgeGrade],
		}
	}
	return out
}

// View is everything the presentation layer shows for one athlete under a filter.
type View struct {
	Profile   scraper.Profile         `json:"profile"`
	Filter    string                  `json:"filter"`
	Rows      []result.Row            `json:"rows"`
	Display   []result.DisplayRow     `json:"display"`
	Monthly   *stats.Attendance       `json:"monthly"`
	Locations []stats.LocationSummary `json:"locations"`
	Totals    stats.Totals            `json:"totals"`
}

// View filters the athlete's runs and derives every aggregate from the
// filtered rows. A nil filter keeps every run.
func (a *Athlete) View(f *filter.Filter, order stats.Order, now time.Time) (*View, error) {
	if f == nil {
		f = filter.New()
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rows := f.Apply(a.Results.Rows)
	locs, err := stats.Locations(rows, order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return &View{
		Profile:   a.Profile,
		Filter:    f.String(),
		Rows:      rows,
		Display:   result.Display(rows),
		Monthly:   stats.MonthlyAttendance(rows, now),
		Locations: locs,
		Totals:    stats.ComputeTotals(rows),
	}, nil
}
