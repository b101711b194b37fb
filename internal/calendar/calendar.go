// Package calendar renders a run history as an iCalendar feed, one event per
// run, so that it can be subscribed to from a calendar application.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/parkrun-stats/internal/location"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
)

// ProductID identifies the generator in the PRODID property.
const ProductID = "-//parkrun-stats//parkrun-stats//EN"

// ContentType is the media type of a serialized calendar.
const ContentType = "text/calendar; charset=utf-8"

// Options control optional calendar content.
type Options struct {
	// Stamp is written as DTSTAMP on every event. Defaults to the current time.
	Stamp time.Time
	// URL is attached to every event, typically the athlete page.
	URL string
	// Locations resolves event names to place names when set.
	Locations *location.Index
}

// Build creates a calendar with one event per row. Each event spans the run
// date in UTC; the upstream page carries no start times.
func Build(athleteID string, profile scraper.Profile, rows []result.Row, opts Options) *ics.Calendar {
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	if profile.Name != "" {
		cal.SetName(fmt.Sprintf("parkrun results: %s", profile.Name))
	}

	for _, r := range rows {
		ev := cal.AddEvent(EventUID(athleteID, r))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(r.RunDate)
		ev.SetEndAt(r.RunDate.AddDate(0, 0, 1))
		ev.SetSummary(Summary(r))
		ev.SetDescription(description(r))
		ev.SetLocation(placeName(r.Event, opts.Locations))
		if opts.URL != "" {
			ev.SetURL(opts.URL)
		}
	}
	return cal
}

// Write serializes the calendar.
func Write(w io.Writer, cal *ics.Calendar) error {
	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// EventUID is stable across exports of the same history.
func EventUID(athleteID string, r result.Row) string {
	return fmt.Sprintf("%s-%d-%s@parkrun-stats", athleteID, r.Index, r.RunDate.Format("20060102"))
}

// Summary is the one-line event title, e.g. "parkrun #12: Riverside 28:30 (PB)".
func Summary(r result.Row) string {
	s := fmt.Sprintf("parkrun #%d: %s %s", r.Index, r.Event, r.Time)
	if r.PB {
		s += " (PB)"
	}
	return s
}

func description(r result.Row) string {
	lines := []string{"Time: " + r.Time.String()}
	if r.Position != nil {
		lines = append(lines, fmt.Sprintf("Position: %d", *r.Position))
	}
	if r.AgeGrade != "" {
		lines = append(lines, "Age grade: "+r.AgeGrade)
	}
	if r.PB {
		lines = append(lines, "Personal best")
	}
	return strings.Join(lines, "\n")
}

func placeName(event string, idx *location.Index) string {
	if idx == nil {
		return event
	}
	loc, ok := idx.Lookup(event)
	if !ok {
		return event
	}
	if loc.Place != "" {
		return fmt.Sprintf("%s, %s", loc.LongName, loc.Place)
	}
	return loc.LongName
}
