package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/parkrun-stats/internal/racetime"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByEvent SortOrder = "event"
	SortByTime  SortOrder = "time"
)

// ParseSortOrder validates a --sort value.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortByDate, nil
	case SortByDate, SortByEvent, SortByTime:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort: %s (must be 'date', 'event' or 'time')", s)
	}
}

// sortDisplay sorts display rows in place. Date order is newest first; the
// other orders fall back to it for ties.
func sortDisplay(rows []result.DisplayRow, order SortOrder) {
	switch order {
	case SortByEvent:
		sort.SliceStable(rows, func(i, j int) bool {
			if !strings.EqualFold(rows[i].Event, rows[j].Event) {
				return strings.ToLower(rows[i].Event) < strings.ToLower(rows[j].Event)
			}
			return newerFirst(rows[i], rows[j])
		})
	case SortByTime:
		sort.SliceStable(rows, func(i, j int) bool {
			ti, tj := displaySeconds(rows[i]), displaySeconds(rows[j])
			if ti != tj {
				return ti < tj
			}
			return newerFirst(rows[i], rows[j])
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			return newerFirst(rows[i], rows[j])
		})
	}
}

// newerFirst compares two rows by attendance index, which follows date order
func newerFirst(i, j result.DisplayRow) bool {
	return i.Index > j.Index
}

func displaySeconds(r result.DisplayRow) int {
	t, err := racetime.Parse(r.Time)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return t.Seconds()
}
