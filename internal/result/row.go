package result

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/racetime"
)

// RunDateLayout is the upstream run date format (dd/mm/yyyy).
const RunDateLayout = "02/01/2006"

// DisplayDateLayout renders a run date without a time of day.
const DisplayDateLayout = "2006-01-02"

var (
	// ErrMalformedRow is returned in strict mode for a row whose date or time does not parse.
	ErrMalformedRow = errors.New("malformed result row")

	// ErrDuplicateRow is returned in strict mode for a repeated (event, run date) pair.
	ErrDuplicateRow = errors.New("duplicate result row")
)

// RawRow is one all-results table row as text.
type RawRow struct {
	Event    string
	RunDate  string
	Time     string
	Position string
	AgeGrade string
}

// Row is one completed run.
type Row struct {
	// Index is the 1-based attendance number in chronological order.
	Index    int                 `json:"index"`
	Event    string              `json:"event"`
	RunDate  time.Time           `json:"run_date"`
	Time     racetime.FinishTime `json:"time"`
	Position *int                `json:"position"`
	AgeGrade string              `json:"age_grade,omitempty"`
	// PB is true when Time equals the lowest time of all runs up to and
	// including this one.
	PB bool `json:"pb"`
}

// Minutes returns the finish time in minutes.
func (r Row) Minutes() float64 {
	return r.Time.Minutes()
}

// AgeGradePercent parses the age grade ("63.00%") into a number.
func (r Row) AgeGradePercent() (float64, bool) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(r.AgeGrade), "%"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseRunDate parses a dd/mm/yyyy run date as a UTC calendar date.
func ParseRunDate(s string) (time.Time, error) {
	return time.ParseInLocation(RunDateLayout, strings.TrimSpace(s), time.UTC)
}

// DefectKind classifies a row that was not kept.
type DefectKind string

const (
	DefectBadDate   DefectKind = "bad_date"
	DefectBadTime   DefectKind = "bad_time"
	DefectDuplicate DefectKind = "duplicate"
)

// Defect records a dropped row and why.
type Defect struct {
	// Line is the row's 0-based position in the upstream table.
	Line   int        `json:"line"`
	Kind   DefectKind `json:"kind"`
	Row    RawRow     `json:"row"`
	Reason string     `json:"reason"`
}

// RowError is the strict-mode failure for a single row.
type RowError struct {
	Line int
	Kind DefectKind
	Row  RawRow
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s %s): %s: %v", e.Line, e.Row.Event, e.Row.RunDate, e.Kind, e.Err)
}

func (e *RowError) Unwrap() []error {
	sentinel := ErrMalformedRow
	if e.Kind == DefectDuplicate {
		sentinel = ErrDuplicateRow
	}
	return []error{sentinel, e.Err}
}
