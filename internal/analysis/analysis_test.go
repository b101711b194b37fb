package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/parkrun-stats/internal/filter"
	"github.com/pfrederiksen/parkrun-stats/internal/logger"
	"github.com/pfrederiksen/parkrun-stats/internal/result"
	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
	"github.com/pfrederiksen/parkrun-stats/internal/stats"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

var quiet = logger.New(logger.LevelError, io.Discard)

// fakeFetcher serves fixed bodies by URL.
type fakeFetcher struct {
	pages map[string]string
	err   error
	urls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*scraper.Page, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &scraper.FetchError{URL: url, StatusCode: http.StatusNotFound}
	}
	return &scraper.Page{URL: url, StatusCode: http.StatusOK, Body: body, FetchedAt: time.Now().UTC()}, nil
}

func TestAnalyze_EndToEnd(t *testing.T) {
	html := loadFixture(t, "athlete_all.html")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parkrunner/123456/all/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(html))
	}))
	defer srv.Close()

	a := New(scraper.New(), srv.URL, WithLogger(quiet))
	athlete, err := a.Analyze(context.Background(), "A123456")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if athlete.ID != "123456" {
		t.Errorf("ID = %q", athlete.ID)
	}
	if athlete.Profile.Name != "Jane DOE" || athlete.Profile.TotalRuns != 3 {
		t.Errorf("Profile = %+v", athlete.Profile)
	}

	rows := athlete.Results.Rows
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	wantEvents := []string{"Riverside", "Riverside", "Lakeview"}
	wantPB := []bool{true, true, false}
	wantMinutes := []float64{30.0, 28.5, 29.0}
	for i, r := range rows {
		if r.Index != i+1 {
			t.Errorf("row %d index = %d", i, r.Index)
		}
		if r.Event != wantEvents[i] {
			t.Errorf("row %d event = %q, want %q", i, r.Event, wantEvents[i])
		}
		if r.PB != wantPB[i] {
			t.Errorf("row %d PB = %v, want %v", i, r.PB, wantPB[i])
		}
		if r.Minutes() != wantMinutes[i] {
			t.Errorf("row %d minutes = %v, want %v", i, r.Minutes(), wantMinutes[i])
		}
	}

	if len(athlete.Summary) != 3 || athlete.Summary[0].Label != "Fastest" {
		t.Errorf("Summary = %+v", athlete.Summary)
	}
	if len(athlete.AnnualBests) != 1 || athlete.AnnualBests[0].Year != 2023 {
		t.Errorf("AnnualBests = %+v", athlete.AnnualBests)
	}

	view, err := athlete.View(nil, stats.OrderByTime, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if view.Locations[0].Event != "Riverside" || view.Locations[1].Event != "Lakeview" {
		t.Errorf("Locations = %+v", view.Locations)
	}
	if len(view.Monthly.Years) != 1 || view.Monthly.Counts()[0][1] != 1 {
		t.Errorf("Monthly counts = %v", view.Monthly.Counts())
	}
	if view.Display[0].Event != "Lakeview" || view.Display[0].RunDate != "2023-03-01" {
		t.Errorf("Display[0] = %+v", view.Display[0])
	}
	if view.Totals.Runs != 3 {
		t.Errorf("Totals = %+v", view.Totals)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	base := "https://example.test"
	good := loadFixture(t, "athlete_all.html")

	tests := []struct {
		name    string
		id      string
		fetcher *fakeFetcher
		strict  bool
		wantErr error
	}{
		{
			name:    "invalid id",
			id:      "abc",
			fetcher: &fakeFetcher{},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "not found",
			id:      "999",
			fetcher: &fakeFetcher{pages: map[string]string{}},
			wantErr: scraper.ErrNotFound,
		},
		{
			name:    "unavailable",
			id:      "123456",
			fetcher: &fakeFetcher{err: &scraper.FetchError{URL: "x", StatusCode: http.StatusServiceUnavailable}},
			wantErr: scraper.ErrUnavailable,
		},
		{
			name: "too few tables",
			id:   "123456",
			fetcher: &fakeFetcher{pages: map[string]string{
				base + "/parkrunner/123456/all/": "<html><table><tr><th>a</th></tr></table></html>",
			}},
			wantErr: scraper.ErrSchemaChanged,
		},
		{
			name: "profile markers missing",
			id:   "123456",
			fetcher: &fakeFetcher{pages: map[string]string{
				base + "/parkrunner/123456/all/": strings.Replace(good, "parkruns total", "runs", 1),
			}},
			wantErr: scraper.ErrSchemaChanged,
		},
		{
			name: "strict mode malformed row",
			id:   "123456",
			fetcher: &fakeFetcher{pages: map[string]string{
				base + "/parkrunner/123456/all/": strings.Replace(good, "<td>29:00</td>", "<td>29m</td>", 1),
			}},
			strict:  true,
			wantErr: result.ErrMalformedRow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.fetcher, base, WithStrict(tt.strict), WithLogger(quiet))
			_, err := a.Analyze(context.Background(), tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Analyze() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnalyze_LenientDropsBadRow(t *testing.T) {
	base := "https://example.test"
	html := strings.Replace(loadFixture(t, "athlete_all.html"), "<td>29:00</td>", "<td>29m</td>", 1)
	f := &fakeFetcher{pages: map[string]string{base + "/parkrunner/123456/all/": html}}

	athlete, err := New(f, base, WithLogger(quiet)).Analyze(context.Background(), "123456")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(athlete.Results.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(athlete.Results.Rows))
	}
	if len(athlete.Results.Defects) != 1 || athlete.Results.Defects[0].Kind != result.DefectBadTime {
		t.Errorf("Defects = %+v", athlete.Results.Defects)
	}
	if len(f.urls) != 1 {
		t.Errorf("fetches = %d, want exactly one request", len(f.urls))
	}
}

func TestAthlete_View(t *testing.T) {
	base := "https://example.test"
	f := &fakeFetcher{pages: map[string]string{base + "/parkrunner/123456/all/": loadFixture(t, "athlete_all.html")}}
	athlete, err := New(f, base, WithLogger(quiet)).Analyze(context.Background(), "123456")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("event and pb filter", func(t *testing.T) {
		view, err := athlete.View(&filter.Filter{Events: []string{"lakeview"}, PBOnly: true}, stats.OrderByEvents, now)
		if err != nil {
			t.Fatalf("View() error = %v", err)
		}
		if len(view.Rows) != 1 || !view.Rows[0].PB {
			t.Errorf("Rows = %+v, want the single Lakeview course PB", view.Rows)
		}
		if len(view.Monthly.Years) != 2 {
			t.Errorf("Monthly years = %d, want 2023..2024", len(view.Monthly.Years))
		}
		if view.Filter != "Events: lakeview | PBs only" {
			t.Errorf("Filter = %q", view.Filter)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := athlete.View(nil, stats.Order("pace"), now)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("View() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := athlete.View(&filter.Filter{Last: -2}, stats.OrderByTime, now)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("View() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("view does not change the athlete", func(t *testing.T) {
		_, _ = athlete.View(&filter.Filter{Events: []string{"Lakeview"}}, stats.OrderByTime, now)
		if athlete.Results.Rows[2].PB {
			t.Error("course retag leaked into the athlete's rows")
		}
	})
}

func TestEventResults(t *testing.T) {
	base := "https://example.test"
	f := &fakeFetcher{pages: map[string]string{
		base + "/riverside/results/latestresults/": loadFixture(t, "latest_results.html"),
	}}
	a := New(f, base, WithLogger(quiet))

	res, err := a.EventResults(context.Background(), "Riverside")
	if err != nil {
		t.Fatalf("EventResults() error = %v", err)
	}
	if res.Event != "riverside" {
		t.Errorf("Event = %q", res.Event)
	}
	if len(res.Finishers) != 4 {
		t.Fatalf("Finishers = %d, want 4 (unknown skipped)", len(res.Finishers))
	}
	if res.Finishers[0].Name != "John DOE" {
		t.Errorf("Finishers[0] = %+v", res.Finishers[0])
	}

	if _, err := a.EventResults(context.Background(), "river$ide"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("EventResults() error = %v, want ErrInvalidInput", err)
	}
	if _, err := a.EventResults(context.Background(), "lakeview"); !errors.Is(err, scraper.ErrNotFound) {
		t.Errorf("EventResults() error = %v, want ErrNotFound", err)
	}
}

func TestRawRows(t *testing.T) {
	table := scraper.Table{Rows: []scraper.Row{
		{"Event": "Riverside", "Run Date": "01/01/2023", "Time": "30:00", "Pos": "10", "Age Grade": "60.00%", "PB?": "PB"},
	}}
	got := RawRows(table)
	want := result.RawRow{Event: "Riverside", RunDate: "01/01/2023", Time: "30:00", Position: "10", AgeGrade: "60.00%"}
	if len(got) != 1 || got[0] != want {
		t.Errorf("RawRows() = %+v, want %+v", got, want)
	}
}
