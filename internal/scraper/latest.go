package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pfrederiksen/parkrun-stats/internal/racetime"
)

// Compound cells on an event's latest-results page, e.g.
//
//	parkrunner: "John DOE245 parkruns | Male 1 | Member of the 100 Club SM25-29 | 77.63% CLUB"
//	Gender:     "Female 127"
//	Age Group:  "SM25-2977.63% age grade"
//	Time:       "16:37PB15:58", "17:05New PB!", "21:40First Timer!"
var (
	leadingTextPattern = regexp.MustCompile(`^\D+`)
	runCountPattern    = regexp.MustCompile(`(\d+)\s+parkruns`)
	ageGradePattern    = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?%)`)
	cellTimePattern    = regexp.MustCompile(`^(\d{1,2}(?::\d{2}){1,2})`)
	previousPBPattern  = regexp.MustCompile(`PB\s*(\d{1,2}(?::\d{2}){1,2})\s*$`)
)

// PB status markers in a latest-results time cell.
const (
	StatusNewPB      = "New PB!"
	StatusFirstTimer = "First Timer!"
)

// Latest-results column names.
const (
	ColFinishPosition = "Position"
	ColParkrunner     = "parkrunner"
	ColGender         = "Gender"
	ColAgeGroup       = "Age Group"
	ColClub           = "Club"
)

// NameBeforeDigits returns the trimmed text before the first digit.
func NameBeforeDigits(s string) (string, bool) {
	m := leadingTextPattern.FindString(s)
	m = strings.TrimSpace(m)
	return m, m != ""
}

// RunCount returns N from the first "N parkruns" in s, or zero.
func RunCount(s string) int {
	m := runCountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// SplitGender splits "Female 127" into the gender and the gender position.
func SplitGender(s string) (string, int, error) {
	gender, ok := NameBeforeDigits(s)
	if !ok {
		return "", 0, fmt.Errorf("no gender in %q", s)
	}
	fields := strings.Fields(s)
	pos, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return "", 0, fmt.Errorf("no gender position in %q", s)
	}
	return gender, pos, nil
}

// AgeGroup is the parsed Age Group cell.
type AgeGroup struct {
	Category string // e.g. "SM25-29", "JM10"
	Band     string // Category without the two-letter prefix, e.g. "25-29"
	AgeGrade string // e.g. "77.63%"
}

// SplitAgeGroup parses an Age Group cell. Junior ten-and-under categories
// (JM10/JW10) are four characters, all others seven.
func SplitAgeGroup(s string) (AgeGroup, error) {
	n := 7
	if strings.Contains(s, "JM10") || strings.Contains(s, "JW10") {
		n = 4
	}
	if len(s) < n {
		return AgeGroup{}, fmt.Errorf("age group %q is too short", s)
	}

	g := AgeGroup{Category: s[:n], Band: s[2:n]}
	if m := ageGradePattern.FindStringSubmatch(s[n:]); m != nil {
		g.AgeGrade = m[1]
	}
	return g, nil
}

// TimeCell is the parsed Time cell of a finisher.
type TimeCell struct {
	Time racetime.FinishTime
	// PB is the athlete's personal best after this run: the run itself for
	// a new PB or a first timer, otherwise the standing PB.
	PB     racetime.FinishTime
	Status string
}

// SplitTimeCell parses "16:37PB15:58", "17:05New PB!" or "21:40First Timer!".
func SplitTimeCell(s string) (TimeCell, error) {
	s = strings.TrimSpace(s)
	m := cellTimePattern.FindString(s)
	if m == "" {
		return TimeCell{}, fmt.Errorf("no finish time in %q", s)
	}
	t, err := racetime.Parse(m)
	if err != nil {
		return TimeCell{}, err
	}

	cell := TimeCell{Time: t, PB: t}
	switch {
	case strings.Contains(s, StatusNewPB):
		cell.Status = StatusNewPB
	case strings.Contains(s, StatusFirstTimer):
		cell.Status = StatusFirstTimer
	default:
		if pm := previousPBPattern.FindStringSubmatch(s[len(m):]); pm != nil {
			pb, err := racetime.Parse(pm[1])
			if err != nil {
				return TimeCell{}, err
			}
			cell.PB = pb
		}
	}
	return cell, nil
}

// Finisher is one row of an event's latest results.
type Finisher struct {
	Position       int                 `json:"position"`
	Name           string              `json:"name"`
	Runs           int                 `json:"runs"`
	Gender         string              `json:"gender,omitempty"`
	GenderPosition int                 `json:"gender_position,omitempty"`
	AgeGroup       string              `json:"age_group,omitempty"`
	AgeBand        string              `json:"age_band,omitempty"`
	AgeGrade       string              `json:"age_grade,omitempty"`
	Club           string              `json:"club,omitempty"`
	Time           racetime.FinishTime `json:"time"`
	PB             racetime.FinishTime `json:"pb"`
	Status         string              `json:"status,omitempty"`
}

// ParseEventResults reads the first table of a latest-results page.
// Unknown finishers (no name, no time) are skipped.
func ParseEventResults(html string) ([]Finisher, error) {
	tables, err := ExtractTables(html)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, &SchemaError{Problems: []string{"no results table"}}
	}

	t := tables[0]
	var problems []string
	for _, col := range []string{ColFinishPosition, ColParkrunner, ColTime} {
		if !t.HasColumn(col) {
			problems = append(problems, fmt.Sprintf("results table is missing column %q", col))
		}
	}
	if len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}

	finishers := make([]Finisher, 0, len(t.Rows))
	for _, row := range t.Rows {
		name, ok := NameBeforeDigits(row[ColParkrunner])
		if !ok || row[ColTime] == "" {
			continue
		}
		cell, err := SplitTimeCell(row[ColTime])
		if err != nil {
			continue
		}

		f := Finisher{
			Name:   name,
			Runs:   RunCount(row[ColParkrunner]),
			Club:   row[ColClub],
			Time:   cell.Time,
			PB:     cell.PB,
			Status: cell.Status,
		}
		f.Position, _ = strconv.Atoi(row[ColFinishPosition])
		if g, pos, err := SplitGender(row[ColGender]); err == nil {
			f.Gender, f.GenderPosition = g, pos
		}
		if ag, err := SplitAgeGroup(row[ColAgeGroup]); err == nil {
			f.AgeGroup, f.AgeBand, f.AgeGrade = ag.Category, ag.Band, ag.AgeGrade
		}
		finishers = append(finishers, f)
	}
	return finishers, nil
}
