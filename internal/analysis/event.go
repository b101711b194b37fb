package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
)

// EventResults is the parsed latest-results page of one event.
type EventResults struct {
	Event     string             `json:"event"`
	URL       string             `json:"url"`
	FetchedAt time.Time          `json:"fetched_at"`
	Finishers []scraper.Finisher `json:"finishers"`
}

// EventResults fetches and parses an event's most recent results.
func (a *Analyzer) EventResults(ctx context.Context, event string) (*EventResults, error) {
	slug, err := scraper.NormalizeEventSlug(event)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	log := a.log.With(logger.Fields{"event": slug})

	url := scraper.EventResultsURL(a.baseURL, slug)
	page, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Error("fetching event results", logger.Fields{"url": url}, err)
		return nil, err
	}

	finishers, err := scraper.ParseEventResults(page.Body)
	if err != nil {
		log.Error("parsing event results", nil, err)
		return nil, err
	}

	log.Info("parsed event results", logger.Fields{"finishers": len(finishers)})
	return &EventResults{
		Event:     slug,
		URL:       page.URL,
		FetchedAt: page.FetchedAt,
		Finishers: finishers,
	}, nil
}
