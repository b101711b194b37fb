// Package filter narrows an athlete's normalized runs before aggregation.
//
// A filter can restrict runs to:
//   - one or more events (case-insensitive name match)
//   - a run-date range (From/To, inclusive)
//   - personal bests only
//   - the most recent N runs
//
// Event filtering happens first and personal bests are recomputed over the
// remaining runs, so filtering to one event and asking for PBs only yields
// that event's course bests.
//
// Example usage:
//
//	f := filter.New()
//	f.Events = []string{"Rhodes"}
//	f.PBOnly = true
//	rows := f.Apply(set.Rows)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/result"
)

// Filter represents run filtering criteria
type Filter struct {
	// Event name filtering (case-insensitive exact match)
	Events []string `json:"events,omitempty"`

	// Date range filtering, inclusive
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`

	// Keep only runs flagged as personal bests
	PBOnly bool `json:"pb_only,omitempty"`

	// Keep only the most recent N runs (0 = all)
	Last int `json:"last,omitempty"`
}

// New creates a filter with no active criteria.
func New() *Filter {
	return &Filter{Events: []string{}}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.Events) == 0 &&
		f.From == nil &&
		f.To == nil &&
		!f.PBOnly &&
		f.Last <= 0)
}

// Validate rejects criteria that can never match.
func (f *Filter) Validate() error {
	if f.Last < 0 {
		return fmt.Errorf("last must not be negative")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return fmt.Errorf("start date must be before end date")
	}
	return nil
}

func (f *Filter) matchesEvent(name string) bool {
	if len(f.Events) == 0 {
		return true
	}
	for _, e := range f.Events {
		if strings.EqualFold(strings.TrimSpace(e), name) {
			return true
		}
	}
	return false
}

// Apply returns the runs passing every criterion, in chronological order.
// rows must be chronological; the input is never modified.
//
// Order of operations: event -> PB retag -> date range -> PB only -> last N.
// Dates are applied after the retag so a run's PB status still reflects
// earlier runs outside the window.
func (f *Filter) Apply(rows []result.Row) []result.Row {
	if f.IsEmpty() {
		out := make([]result.Row, len(rows))
		copy(out, rows)
		return out
	}

	selected := make([]result.Row, 0, len(rows))
	for _, r := range rows {
		if f.matchesEvent(r.Event) {
			selected = append(selected, r)
		}
	}
	if len(f.Events) > 0 {
		selected = result.Retag(selected)
	}

	var from, to time.Time
	if f.From != nil {
		from = *f.From
	}
	if f.To != nil {
		to = *f.To
	}
	selected = result.Between(selected, from, to)

	if f.PBOnly {
		pbs := selected[:0:0]
		for _, r := range selected {
			if r.PB {
				pbs = append(pbs, r)
			}
		}
		selected = pbs
	}

	if f.Last > 0 && len(selected) > f.Last {
		selected = selected[len(selected)-f.Last:]
	}
	return selected
}

// String returns a human-readable description of the active filter criteria.
// Format: "Events: Rhodes | From: Jan 2, 2023 | To: Jun 30, 2023 | PBs only | Last 10"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if len(f.Events) > 0 {
		parts = append(parts, fmt.Sprintf("Events: %s", strings.Join(f.Events, ", ")))
	}
	if f.From != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.From.Format("Jan 2, 2006")))
	}
	if f.To != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.To.Format("Jan 2, 2006")))
	}
	if f.PBOnly {
		parts = append(parts, "PBs only")
	}
	if f.Last > 0 {
		parts = append(parts, fmt.Sprintf("Last %d", f.Last))
	}
	return strings.Join(parts, " | ")
}

// Clone creates a deep copy of the filter.
func (f *Filter) Clone() *Filter {
	clone := &Filter{PBOnly: f.PBOnly, Last: f.Last}
	clone.Events = append([]string{}, f.Events...)
	if f.From != nil {
		from := *f.From
		clone.From = &from
	}
	if f.To != nil {
		to := *f.To
		clone.To = &to
	}
	return clone
}
