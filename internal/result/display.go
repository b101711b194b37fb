package result

import (
	"sort"
	"strconv"
)

// PBMarker marks a personal best in the display projection.
const PBMarker = "PB"

// DisplayRow is the presentation projection of a Row.
type DisplayRow struct {
	Index    int    `json:"parkrun_number"`
	Event    string `json:"event"`
	RunDate  string `json:"run_date"`
	Position string `json:"position"`
	Time     string `json:"time"`
	PB       string `json:"pb"`
	AgeGrade string `json:"age_grade"`
}

// Display projects rows newest first, with dates as plain calendar dates.
func Display(rows []Row) []DisplayRow {
	out := make([]DisplayRow, len(rows))
	for i, r := range rows {
		d := DisplayRow{
			Index:    r.Index,
			Event:    r.Event,
			RunDate:  r.RunDate.Format(DisplayDateLayout),
			Time:     r.Time.String(),
			AgeGrade: r.AgeGrade,
		}
		if r.Position != nil {
			d.Position = strconv.Itoa(*r.Position)
		}
		if r.PB {
			d.PB = PBMarker
		}
		out[i] = d
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RunDate != out[j].RunDate {
			return out[i].RunDate > out[j].RunDate
		}
		return out[i].Index > out[j].Index
	})
	return out
}
