package stats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pfrederiksen/parkrun-stats/internal/racetime"
	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
)

// SummaryLine is one row of the upstream summary table ("Fastest", "Average", "Best").
type SummaryLine struct {
	Label    string `json:"label"`
	Time     string `json:"time"`
	AgeGrade string `json:"age_grade"`
	Position string `json:"position"`
}

// SummaryStats reads the summary table. Its label column has no header and
// is therefore named "#0" by the extractor.
func SummaryStats(t scraper.Table) []SummaryLine {
	out := make([]SummaryLine, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, SummaryLine{
			Label:    row["#0"],
			Time:     row["Time"],
			AgeGrade: row["Age Grade"],
			Position: row["Overall Position"],
		})
	}
	return out
}

// AnnualBest is the best result of one calendar year.
type AnnualBest struct {
	Year         int                 `json:"year"`
	BestTime     racetime.FinishTime `json:"best_time"`
	BestAgeGrade string              `json:"best_age_grade"`
}

// AnnualBests reads the annual-bests table, oldest year first.
func AnnualBests(t scraper.Table) ([]AnnualBest, error) {
	out := make([]AnnualBest, 0, len(t.Rows))
	for i, row := range t.Rows {
		year, err := strconv.Atoi(strings.TrimSpace(row["Year"]))
		if err != nil {
			return nil, fmt.Errorf("annual bests row %d: year %q: %w", i, row["Year"], err)
		}
		best, err := racetime.Parse(row["Best Time"])
		if err != nil {
			return nil, fmt.Errorf("annual bests row %d: %w", i, err)
		}
		out = append(out, AnnualBest{Year: year, BestTime: best, BestAgeGrade: row["Best Age Grading"]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}
