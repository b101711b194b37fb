package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/racetime"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
)

// Order selects how location summaries are ranked.
type Order string

const (
	// OrderByTime ranks by fastest time, quickest first.
	OrderByTime Order = "time"
	// OrderByEvents ranks by attendance count, most visited first.
	OrderByEvents Order = "events"
)

// ErrUnknownOrder is returned for an order other than "time" or "events".
var ErrUnknownOrder = fmt.Errorf("unknown order (want %q or %q)", OrderByTime, OrderByEvents)

// ParseOrder converts user input into an Order. Empty input means OrderByTime.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OrderByTime, nil
	case OrderByTime, OrderByEvents:
		return o, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownOrder)
	}
}

// LocationSummary aggregates the runs at one event.
type LocationSummary struct {
	Event string `json:"event"`
	// Count is the number of distinct run dates at the event.
	Count    int                 `json:"count"`
	Fastest  racetime.FinishTime `json:"fastest"`
	Average  racetime.FinishTime `json:"average"`
	FirstRun time.Time           `json:"first_run"`
	LastRun  time.Time           `json:"last_run"`
}

// Locations groups rows by event name and ranks the groups.
func Locations(rows []result.Row, order Order) ([]LocationSummary, error) {
	if order == "" {
		order = OrderByTime
	}
	if order != OrderByTime && order != OrderByEvents {
		return nil, fmt.Errorf("%q: %w", order, ErrUnknownOrder)
	}

	type acc struct {
		summary LocationSummary
		total   int
		runs    int
		dates   map[time.Time]bool
	}
	groups := make(map[string]*acc)
	for _, r := range rows {
		g, ok := groups[r.Event]
		if !ok {
			g = &acc{
				summary: LocationSummary{Event: r.Event, Fastest: r.Time, FirstRun: r.RunDate, LastRun: r.RunDate},
				dates:   make(map[time.Time]bool),
			}
			groups[r.Event] = g
		}
		if r.Time < g.summary.Fastest {
			g.summary.Fastest = r.Time
		}
		if r.RunDate.Before(g.summary.FirstRun) {
			g.summary.FirstRun = r.RunDate
		}
		if r.RunDate.After(g.summary.LastRun) {
			g.summary.LastRun = r.RunDate
		}
		g.dates[r.RunDate] = true
		g.total += r.Time.Seconds()
		g.runs++
	}

	out := make([]LocationSummary, 0, len(groups))
	for _, g := range groups {
		g.summary.Count = len(g.dates)
		g.summary.Average = racetime.FinishTime(g.total / g.runs)
		out = append(out, g.summary)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch order {
		case OrderByEvents:
			if a.Count != b.Count {
				return a.Count > b.Count
			}
		default:
			if a.Fastest != b.Fastest {
				return a.Fastest < b.Fastest
			}
		}
		return a.Event < b.Event
	})
	return out, nil
}
