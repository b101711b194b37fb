package stats

import (
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/racetime"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
)

// Totals summarises a run history.
type Totals struct {
	Runs      int                 `json:"runs"`
	Locations int                 `json:"locations"`
	PBs       int                 `json:"pbs"`
	Fastest   racetime.FinishTime `json:"fastest"`
	Average   racetime.FinishTime `json:"average"`
	FirstRun  time.Time           `json:"first_run"`
	LastRun   time.Time           `json:"last_run"`
}

// ComputeTotals returns zero Totals for an empty history.
func ComputeTotals(rows []result.Row) Totals {
	var t Totals
	if len(rows) == 0 {
		return t
	}

	events := make(map[string]bool)
	sum := 0
	t.Fastest = rows[0].Time
	t.FirstRun, t.LastRun = rows[0].RunDate, rows[0].RunDate
	for _, r := range rows {
		events[r.Event] = true
		sum += r.Time.Seconds()
		if r.Time < t.Fastest {
			t.Fastest = r.Time
		}
		if r.PB {
			t.PBs++
		}
		if r.RunDate.Before(t.FirstRun) {
			t.FirstRun = r.RunDate
		}
		if r.RunDate.After(t.LastRun) {
			t.LastRun = r.RunDate
		}
	}
	t.Runs = len(rows)
	t.Locations = len(events)
	t.Average = racetime.FinishTime(sum / len(rows))
	return t
}
