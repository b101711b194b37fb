package result

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/racetime"
)

func quietOptions(strict bool) Options {
	return Options{Strict: strict, Log: logger.New(logger.LevelError, &bytes.Buffer{})}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Upstream order: newest first.
var scenarioRows = []RawRow{
	{Event: "Lakeview", RunDate: "01/03/2023", Time: "29:00", Position: "8", AgeGrade: "61%"},
	{Event: "Riverside", RunDate: "01/02/2023", Time: "28:30", Position: "5", AgeGrade: "63%"},
	{Event: "Riverside", RunDate: "01/01/2023", Time: "30:00", Position: "10", AgeGrade: "60%"},
}

func TestNormalize_Scenario(t *testing.T) {
	set, err := Normalize(scenarioRows, quietOptions(false))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(set.Rows) != 3 || len(set.Defects) != 0 {
		t.Fatalf("got %d rows, %d defects", len(set.Rows), len(set.Defects))
	}

	wantEvents := []string{"Riverside", "Riverside", "Lakeview"}
	wantDates := []time.Time{date(2023, 1, 1), date(2023, 2, 1), date(2023, 3, 1)}
	wantPB := []bool{true, true, false}
	wantMinutes := []float64{30.0, 28.5, 29.0}

	for i, r := range set.Rows {
		if r.Index != i+1 {
			t.Errorf("row %d index = %d, want %d", i, r.Index, i+1)
		}
		if r.Event != wantEvents[i] {
			t.Errorf("row %d event = %q, want %q", i, r.Event, wantEvents[i])
		}
		if !r.RunDate.Equal(wantDates[i]) {
			t.Errorf("row %d date = %v, want %v", i, r.RunDate, wantDates[i])
		}
		if r.PB != wantPB[i] {
			t.Errorf("row %d PB = %v, want %v", i, r.PB, wantPB[i])
		}
		if math.Abs(r.Minutes()-wantMinutes[i]) > 1e-9 {
			t.Errorf("row %d minutes = %v, want %v", i, r.Minutes(), wantMinutes[i])
		}
	}

	if set.Rows[0].Position == nil || *set.Rows[0].Position != 10 {
		t.Errorf("first row position = %v, want 10", set.Rows[0].Position)
	}
	if v, ok := set.Rows[1].AgeGradePercent(); !ok || v != 63 {
		t.Errorf("age grade = %v,%v want 63", v, ok)
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := append([]RawRow(nil), scenarioRows...)
	if _, err := Normalize(in, quietOptions(false)); err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != scenarioRows[i] {
			t.Fatalf("input row %d changed", i)
		}
	}
}

func TestNormalize_RowPolicy(t *testing.T) {
	raw := []RawRow{
		{Event: "Rhodes", RunDate: "08/04/2023", Time: "25:00", Position: "40"},
		{Event: "Rhodes", RunDate: "31/02/2023", Time: "25:10"},
		{Event: "Rhodes", RunDate: "18/03/2023", Time: "DNF"},
		{Event: "Rhodes", RunDate: "11/03/2023", Time: "26:00"},
	}

	t.Run("lenient drops and reports", func(t *testing.T) {
		set, err := Normalize(raw, quietOptions(false))
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if len(set.Rows) != 2 {
			t.Fatalf("expected 2 kept rows, got %d", len(set.Rows))
		}
		if len(set.Defects) != 2 {
			t.Fatalf("expected 2 defects, got %d", len(set.Defects))
		}
		if set.Defects[0].Kind != DefectBadDate || set.Defects[0].Line != 1 {
			t.Errorf("first defect = %+v", set.Defects[0])
		}
		if set.Defects[1].Kind != DefectBadTime || set.Defects[1].Line != 2 {
			t.Errorf("second defect = %+v", set.Defects[1])
		}
		if set.Rows[0].Index != 1 || set.Rows[1].Index != 2 {
			t.Errorf("indices must stay contiguous after drops: %d,%d", set.Rows[0].Index, set.Rows[1].Index)
		}
	})

	t.Run("strict aborts", func(t *testing.T) {
		set, err := Normalize(raw, quietOptions(true))
		if set != nil {
			t.Error("strict mode must not return partial results")
		}
		if !errors.Is(err, ErrMalformedRow) {
			t.Fatalf("expected ErrMalformedRow, got %v", err)
		}
		var re *RowError
		if !errors.As(err, &re) || re.Line != 1 || re.Kind != DefectBadDate {
			t.Errorf("RowError = %+v", re)
		}
	})
}

func TestNormalize_Duplicates(t *testing.T) {
	raw := []RawRow{
		{Event: "Rhodes", RunDate: "25/12/2023", Time: "24:00"},
		{Event: "rhodes ", RunDate: "25/12/2023", Time: "23:00"},
		{Event: "Bushy Park", RunDate: "25/12/2023", Time: "22:00"},
	}

	set, err := Normalize(raw, quietOptions(false))
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Rows) != 2 || len(set.Defects) != 1 || set.Defects[0].Kind != DefectDuplicate {
		t.Fatalf("rows = %d, defects = %+v", len(set.Rows), set.Defects)
	}
	// First row in table order is kept.
	for _, r := range set.Rows {
		if r.Event == "Rhodes" && r.Time != racetime.MustParse("24:00") {
			t.Errorf("kept the wrong duplicate: %+v", r)
		}
	}

	if _, err := Normalize(raw, quietOptions(true)); !errors.Is(err, ErrDuplicateRow) {
		t.Errorf("strict mode should fail with ErrDuplicateRow, got %v", err)
	}
}

func TestNormalize_SameDayKeepsUpstreamOrder(t *testing.T) {
	// Two runs on New Year's Day: upstream lists the later one first.
	raw := []RawRow{
		{Event: "Second", RunDate: "01/01/2024", Time: "27:00"},
		{Event: "First", RunDate: "01/01/2024", Time: "26:00"},
	}
	set, err := Normalize(raw, quietOptions(false))
	if err != nil {
		t.Fatal(err)
	}
	if set.Rows[0].Event != "First" || set.Rows[1].Event != "Second" {
		t.Errorf("order = %s, %s", set.Rows[0].Event, set.Rows[1].Event)
	}
}

func randomRawRows(rng *rand.Rand, n int) []RawRow {
	start := date(2015, 1, 3)
	days := rng.Perm(n * 3)[:n]
	raw := make([]RawRow, n)
	for i, d := range days {
		run := start.AddDate(0, 0, 7*d)
		raw[i] = RawRow{
			Event:   []string{"Rhodes", "Bushy Park", "Albert"}[rng.Intn(3)],
			RunDate: run.Format(RunDateLayout),
			Time:    racetime.FinishTime(1200 + rng.Intn(900)).String(),
		}
	}
	return raw
}

func TestNormalize_IndexBijection(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(60)
		set, err := Normalize(randomRawRows(rng, n), quietOptions(true))
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}

		indices := make([]int, len(set.Rows))
		for i, r := range set.Rows {
			indices[i] = r.Index
			if i > 0 && set.Rows[i].RunDate.Before(set.Rows[i-1].RunDate) {
				t.Fatalf("trial %d: rows not chronological at %d", trial, i)
			}
		}
		sort.Ints(indices)
		for i, idx := range indices {
			if idx != i+1 {
				t.Fatalf("trial %d: indices = %v", trial, indices)
			}
		}
	}
}

func TestPersonalBests_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(40)
		times := make([]racetime.FinishTime, n)
		for i := range times {
			times[i] = racetime.FinishTime(1500 + rng.Intn(120))
		}

		flags := PersonalBests(times)
		if !flags[0] {
			t.Fatalf("trial %d: first row must be a PB", trial)
		}
		last := times[0]
		for i, pb := range flags {
			if !pb {
				continue
			}
			if times[i] > last {
				t.Fatalf("trial %d: PB %v after PB %v", trial, times[i], last)
			}
			last = times[i]
		}
	}
}

func TestPersonalBests_Ties(t *testing.T) {
	times := []racetime.FinishTime{
		racetime.MustParse("25:00"),
		racetime.MustParse("26:00"),
		racetime.MustParse("25:00"),
		racetime.MustParse("24:59"),
	}
	got := PersonalBests(times)
	want := []bool{true, false, true, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PersonalBests()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(PersonalBests(nil)) != 0 {
		t.Error("PersonalBests(nil) should be empty")
	}
}

func TestDisplay(t *testing.T) {
	set, err := Normalize(scenarioRows, quietOptions(false))
	if err != nil {
		t.Fatal(err)
	}
	rows := Display(set.Rows)

	want := []DisplayRow{
		{Index: 3, Event: "Lakeview", RunDate: "2023-03-01", Position: "8", Time: "29:00", PB: "", AgeGrade: "61%"},
		{Index: 2, Event: "Riverside", RunDate: "2023-02-01", Position: "5", Time: "28:30", PB: PBMarker, AgeGrade: "63%"},
		{Index: 1, Event: "Riverside", RunDate: "2023-01-01", Position: "10", Time: "30:00", PB: PBMarker, AgeGrade: "60%"},
	}
	if len(rows) != len(want) {
		t.Fatalf("Display() returned %d rows", len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("Display()[%d] = %+v, want %+v", i, rows[i], want[i])
		}
	}
	if set.Rows[0].Index != 1 {
		t.Error("Display must not reorder its input")
	}
}

func TestBetween(t *testing.T) {
	set, _ := Normalize(scenarioRows, quietOptions(false))

	got := Between(set.Rows, date(2023, 1, 15), time.Time{})
	if len(got) != 2 || got[0].Index != 2 {
		t.Errorf("Between(from) = %+v", got)
	}
	got = Between(set.Rows, time.Time{}, date(2023, 2, 1))
	if len(got) != 2 || got[1].Index != 2 {
		t.Errorf("Between(to) inclusive = %+v", got)
	}
}

func TestRetag(t *testing.T) {
	set, _ := Normalize(scenarioRows, quietOptions(false))

	// Lakeview alone: its only run is its course best.
	lakeview := Retag(set.Rows[2:])
	if !lakeview[0].PB {
		t.Error("single-run subset should be a PB")
	}
	if set.Rows[2].PB {
		t.Error("Retag must not modify its input")
	}
}
