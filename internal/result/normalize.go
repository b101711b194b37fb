package result

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/metrics"
	"github.com/pfrederiksen/parkrun-stats/internal/racetime"
)

// Options control how Normalize treats bad rows.
type Options struct {
	// Strict aborts on the first malformed or duplicate row. Otherwise such
	// rows are dropped and reported as defects.
	Strict bool

	Log *logger.Logger
}

// Set is the normalized record set of one athlete.
type Set struct {
	// Rows are in chronological order with indices 1..len(Rows).
	Rows    []Row    `json:"rows"`
	Defects []Defect `json:"defects,omitempty"`
}

type parsedRow struct {
	line int
	row  Row
}

// Normalize parses, orders, numbers and PB-tags raw rows.
//
// The upstream table lists runs newest first, so two runs on the same date
// keep that relationship: the lower table row is the earlier run. For a
// repeated (event, run date) pair the first row in table order is kept.
func Normalize(raw []RawRow, opts Options) (*Set, error) {
	log := opts.Log
	if log == nil {
		log = logger.Default()
	}

	set := &Set{}
	parsed := make([]parsedRow, 0, len(raw))
	seen := make(map[string]int, len(raw))

	for line, r := range raw {
		row, kind, err := parseRow(r)
		if err == nil {
			key := strings.ToLower(strings.TrimSpace(r.Event)) + "|" + row.RunDate.Format(DisplayDateLayout)
			if first, dup := seen[key]; dup {
				kind, err = DefectDuplicate, fmt.Errorf("same event and date as row %d", first)
			} else {
				seen[key] = line
			}
		}

		if err != nil {
			if opts.Strict {
				return nil, &RowError{Line: line, Kind: kind, Row: r, Err: err}
			}
			set.Defects = append(set.Defects, Defect{Line: line, Kind: kind, Row: r, Reason: err.Error()})
			metrics.IncDefect(string(kind))
			log.Warn("dropped result row", logger.Fields{
				"line":     line,
				"kind":     string(kind),
				"event":    r.Event,
				"run_date": r.RunDate,
				"time":     r.Time,
				"reason":   err.Error(),
			})
			continue
		}
		parsed = append(parsed, parsedRow{line: line, row: row})
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		a, b := parsed[i], parsed[j]
		if !a.row.RunDate.Equal(b.row.RunDate) {
			return a.row.RunDate.Before(b.row.RunDate)
		}
		return a.line > b.line
	})

	rows := make([]Row, len(parsed))
	for i, p := range parsed {
		p.row.Index = i + 1
		rows[i] = p.row
	}
	set.Rows = Retag(rows)

	metrics.AddRowsNormalized(len(set.Rows))
	return set, nil
}

func parseRow(r RawRow) (Row, DefectKind, error) {
	date, err := ParseRunDate(r.RunDate)
	if err != nil {
		return Row{}, DefectBadDate, fmt.Errorf("run date %q: %w", r.RunDate, err)
	}
	t, err := racetime.Parse(r.Time)
	if err != nil {
		return Row{}, DefectBadTime, err
	}

	row := Row{
		Event:    strings.TrimSpace(r.Event),
		RunDate:  date,
		Time:     t,
		AgeGrade: strings.TrimSpace(r.AgeGrade),
	}
	if pos, err := strconv.Atoi(strings.TrimSpace(r.Position)); err == nil {
		row.Position = &pos
	}
	return row, "", nil
}

// Between returns the rows whose run date lies in [from, to]. A zero bound is open.
func Between(rows []Row, from, to time.Time) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !from.IsZero() && r.RunDate.Before(from) {
			continue
		}
		if !to.IsZero() && r.RunDate.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
