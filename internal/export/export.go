// Package export writes the display projection of a run history as a
// delimited flat file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pfrederiksen/parkrun-stats/internal/result"
)

// Header is the column order of the results download.
var Header = []string{"Parkrun Number", "Event", "Run Date", "Position", "Time", "PB", "Age Grade"}

// ContentType is the media type of WriteCSV output.
const ContentType = "text/csv; charset=utf-8"

// Filename suggests a download name for an athlete's results.
func Filename(athleteID string) string {
	return fmt.Sprintf("parkrun_results_%s.csv", athleteID)
}

// WriteCSV writes the header and one record per row, in the order given.
func WriteCSV(w io.Writer, rows []result.DisplayRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Index),
			r.Event,
			r.RunDate,
			r.Position,
			r.Time,
			r.PB,
			r.AgeGrade,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
