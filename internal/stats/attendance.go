package stats

import (
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/racetime"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
)

// Visit is one run shown in a month cell.
type Visit struct {
	Event   string              `json:"event"`
	RunDate time.Time           `json:"run_date"`
	Time    racetime.FinishTime `json:"time"`
}

// MonthCell is the attendance of one calendar month.
type MonthCell struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	// Count is the number of distinct run dates in the month.
	Count  int     `json:"count"`
	Visits []Visit `json:"visits"`
}

// YearRow holds January..December of one year.
type YearRow struct {
	Year   int           `json:"year"`
	Months [12]MonthCell `json:"months"`
}

// Attendance is a dense year x month grid. Every month from January of the
// first attendance year to December of the last year is present.
type Attendance struct {
	Years []YearRow `json:"years"`
}

// MonthlyAttendance builds the grid over rows. The year range runs from the
// earliest run to now's year (or the latest run, if that is later).
func MonthlyAttendance(rows []result.Row, now time.Time) *Attendance {
	grid := &Attendance{Years: []YearRow{}}
	if len(rows) == 0 {
		return grid
	}

	first, last := rows[0].RunDate.Year(), rows[0].RunDate.Year()
	for _, r := range rows {
		y := r.RunDate.Year()
		if y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	if !now.IsZero() && now.Year() > last {
		last = now.Year()
	}

	grid.Years = make([]YearRow, 0, last-first+1)
	for y := first; y <= last; y++ {
		row := YearRow{Year: y}
		for m := range row.Months {
			row.Months[m] = MonthCell{Year: y, Month: time.Month(m + 1), Visits: []Visit{}}
		}
		grid.Years = append(grid.Years, row)
	}

	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		cell := &grid.Years[r.RunDate.Year()-first].Months[r.RunDate.Month()-1]
		cell.Visits = append(cell.Visits, Visit{Event: r.Event, RunDate: r.RunDate, Time: r.Time})

		day := r.RunDate.Format(result.DisplayDateLayout)
		if !seen[day] {
			seen[day] = true
			cell.Count++
		}
	}
	return grid
}

// Cell returns the cell for a year and month.
func (a *Attendance) Cell(year int, month time.Month) (MonthCell, bool) {
	if len(a.Years) == 0 || month < time.January || month > time.December {
		return MonthCell{}, false
	}
	i := year - a.Years[0].Year
	if i < 0 || i >= len(a.Years) {
		return MonthCell{}, false
	}
	return a.Years[i].Months[month-1], true
}

// Cells flattens the grid in calendar order.
func (a *Attendance) Cells() []MonthCell {
	out := make([]MonthCell, 0, len(a.Years)*12)
	for _, y := range a.Years {
		out = append(out, y.Months[:]...)
	}
	return out
}

// Counts returns the count matrix: one row per year, twelve columns.
func (a *Attendance) Counts() [][]int {
	out := make([][]int, len(a.Years))
	for i, y := range a.Years {
		counts := make([]int, 12)
		for m, c := range y.Months {
			counts[m] = c.Count
		}
		out[i] = counts
	}
	return out
}
