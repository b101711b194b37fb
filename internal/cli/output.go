package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/analysis"
	"github.com/pfrederiksen/parkrun-stats/internal/export"
	"github.com/pfrederiksen/parkrun-stats/internal/location"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
	"github.com/pfrederiksen/parkrun-stats/internal/stats"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
	FormatICS  OutputFormat = "ics"
)

var errNoSuchEvent = fmt.Errorf("no such event in the location feed: %w", scraper.ErrNotFound)

// ParseFormat validates a --format value against the formats a command supports.
func ParseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	names := make([]string, len(allowed))
	for i, a := range allowed {
		if format == a {
			return format, nil
		}
		names[i] = "'" + string(a) + "'"
	}
	return "", fmt.Errorf("invalid format: %s (must be %s)", s, strings.Join(names, ", "))
}

// ResultsOutput is the JSON shape of the results command.
type ResultsOutput struct {
	AthleteID   string              `json:"athlete_id"`
	CheckedAt   time.Time           `json:"checked_at"`
	Profile     scraper.Profile     `json:"profile"`
	Filter      string              `json:"filter"`
	Totals      stats.Totals        `json:"totals"`
	AnnualBests []stats.AnnualBest  `json:"annual_bests"`
	Results     []result.DisplayRow `json:"results"`
	Defects     []result.Defect     `json:"defects,omitempty"`
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteResults writes an athlete's (already sorted) display rows.
func WriteResults(w io.Writer, athlete *analysis.Athlete, view *analysis.View, rows []result.DisplayRow, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, ResultsOutput{
			AthleteID:   athlete.ID,
			CheckedAt:   athlete.FetchedAt,
			Profile:     view.Profile,
			Filter:      view.Filter,
			Totals:      view.Totals,
			AnnualBests: athlete.AnnualBests,
			Results:     rows,
			Defects:     athlete.Results.Defects,
		})
	case FormatCSV:
		return export.WriteCSV(w, rows)
	case FormatText:
		return writeResultsText(w, athlete, view, rows)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeResultsText outputs results as human-readable text
func writeResultsText(w io.Writer, athlete *analysis.Athlete, view *analysis.View, rows []result.DisplayRow) error {
	p := view.Profile
	fmt.Fprintf(w, "%s (%s)\n", p.Name, athlete.ID)
	fmt.Fprintf(w, "%d parkruns total, most recent age category %s\n", p.TotalRuns, p.LastAgeCategory)
	if p.MilestoneClub != "" {
		fmt.Fprintf(w, "Member of the parkrun %s club\n", p.MilestoneClub)
	}
	if view.Filter != "No active filters" {
		fmt.Fprintf(w, "Filter: %s\n", view.Filter)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "\nNo results found.")
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(export.Header, "\t"))
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Index, r.Event, r.RunDate, r.Position, r.Time, r.PB, r.AgeGrade)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	t := view.Totals
	fmt.Fprintf(w, "\nTotal: %d runs at %d locations, %d PBs, fastest %s, average %s\n",
		t.Runs, t.Locations, t.PBs, t.Fastest, t.Average)

	if n := len(athlete.Results.Defects); n > 0 {
		fmt.Fprintf(w, "Skipped %d malformed or duplicate rows (use --strict to fail instead)\n", n)
	}
	return nil
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// WriteAttendance writes the monthly attendance grid.
func WriteAttendance(w io.Writer, grid *stats.Attendance, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, grid)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(append([]string{"Year"}, monthNames...)); err != nil {
			return err
		}
		for i, counts := range grid.Counts() {
			record := []string{strconv.Itoa(grid.Years[i].Year)}
			for _, c := range counts {
				record = append(record, strconv.Itoa(c))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatText:
		if len(grid.Years) == 0 {
			fmt.Fprintln(w, "No attendance found.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "Year\t%s\tTotal\t\n", strings.Join(monthNames, "\t"))
		for i, counts := range grid.Counts() {
			total := 0
			cells := make([]string, len(counts))
			for m, c := range counts {
				total += c
				cells[m] = strconv.Itoa(c)
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t\n", grid.Years[i].Year, strings.Join(cells, "\t"), total)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteLocations writes location summaries in their ranked order. idx, when
// set, adds coordinates from the event feed.
func WriteLocations(w io.Writer, locs []stats.LocationSummary, idx *location.Index, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if idx != nil {
			return writeJSON(w, idx.Join(locs))
		}
		return writeJSON(w, locs)
	case FormatCSV:
		cw := csv.NewWriter(w)
		header := []string{"Rank", "Event", "Runs", "Fastest", "Average", "First Run", "Last Run"}
		if idx != nil {
			header = append(header, "Latitude", "Longitude")
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		for i, l := range locs {
			record := []string{
				strconv.Itoa(i + 1), l.Event, strconv.Itoa(l.Count), l.Fastest.String(), l.Average.String(),
				l.FirstRun.Format(result.DisplayDateLayout), l.LastRun.Format(result.DisplayDateLayout),
			}
			if idx != nil {
				lat, lon := "", ""
				if loc, ok := idx.Lookup(l.Event); ok {
					lat = strconv.FormatFloat(loc.Latitude, 'f', -1, 64)
					lon = strconv.FormatFloat(loc.Longitude, 'f', -1, 64)
				}
				record = append(record, lat, lon)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatText:
		if len(locs) == 0 {
			fmt.Fprintln(w, "No locations found.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tEvent\tRuns\tFastest\tAverage\tLast Run")
		for i, l := range locs {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", i+1, l.Event, l.Count, l.Fastest, l.Average, l.LastRun.Format(result.DisplayDateLayout))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nTotal: %d locations\n", len(locs))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteFeed writes event locations from the feed.
func WriteFeed(w io.Writer, locs []location.Location, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, locs)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"ID", "Name", "Long Name", "Slug", "Country", "Series", "Latitude", "Longitude"}); err != nil {
			return err
		}
		for _, l := range locs {
			if err := cw.Write([]string{
				strconv.Itoa(l.ID), l.Name, l.LongName, l.Slug, strconv.Itoa(l.CountryCode), strconv.Itoa(l.SeriesID),
				strconv.FormatFloat(l.Latitude, 'f', -1, 64), strconv.FormatFloat(l.Longitude, 'f', -1, 64),
			}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatText:
		for _, l := range locs {
			fmt.Fprintf(w, "%s: %s (%.4f, %.4f)\n", l.Name, l.LongName, l.Latitude, l.Longitude)
		}
		fmt.Fprintf(w, "\nTotal: %d events\n", len(locs))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteEventResults writes an event's latest finishers.
func WriteEventResults(w io.Writer, res *analysis.EventResults, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"Position", "Name", "Runs", "Gender", "Age Group", "Age Grade", "Club", "Time", "PB", "Status"}); err != nil {
			return err
		}
		for _, f := range res.Finishers {
			pb := ""
			if f.PB > 0 {
				pb = f.PB.String()
			}
			if err := cw.Write([]string{
				strconv.Itoa(f.Position), f.Name, strconv.Itoa(f.Runs), f.Gender, f.AgeGroup, f.AgeGrade, f.Club, f.Time.String(), pb, f.Status,
			}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatText:
		if len(res.Finishers) == 0 {
			fmt.Fprintln(w, "No finishers found.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Pos\tName\tRuns\tAge Group\tTime\tNote")
		for _, f := range res.Finishers {
			note := f.Status
			if note == "" && f.PB > 0 {
				note = "PB " + f.PB.String()
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", f.Position, f.Name, f.Runs, f.AgeGroup, f.Time, note)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nTotal: %d finishers at %s\n", len(res.Finishers), res.Event)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
