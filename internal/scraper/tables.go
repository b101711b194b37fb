package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table names on the athlete all-results page.
const (
	TableSummaryStats = "summary_stats"
	TableAnnualBests  = "annual_bests"
	TableAllResults   = "all_results"
)

// Column names of the all-results table.
const (
	ColEvent    = "Event"
	ColRunDate  = "Run Date"
	ColTime     = "Time"
	ColPosition = "Pos"
	ColAgeGrade = "Age Grade"
)

// Row is one table row keyed by column header.
type Row map[string]string

// Table is an untyped table: ordered headers and rows of named cells.
type Table struct {
	Headers []string
	Rows    []Row
}

// HasColumn reports whether a header with that name exists.
func (t Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// tableSpec selects one table by position and lists the columns the pipeline reads.
type tableSpec struct {
	name     string
	index    int
	required []string
}

// athleteLayout is the expected shape of the athlete all-results page.
var athleteLayout = []tableSpec{
	{name: TableSummaryStats, index: 0},
	{name: TableAnnualBests, index: 1},
	{name: TableAllResults, index: 2, required: []string{ColEvent, ColRunDate, ColTime, ColPosition, ColAgeGrade}},
}

// AthleteTables are the three tables of an athlete page, looked up by name.
type AthleteTables struct {
	SummaryStats Table
	AnnualBests  Table
	AllResults   Table
}

// ExtractTables parses every <table> in the document in document order.
// Header cells come from the first row containing <th>; blank headers are
// named by position ("#0", "#1", ...).
func ExtractTables(html string) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	tables := make([]Table, 0)
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		tables = append(tables, parseTable(sel))
	})
	return tables, nil
}

func parseTable(sel *goquery.Selection) Table {
	var t Table

	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Children().Filter("th,td")

		if t.Headers == nil && cells.Filter("th").Length() > 0 {
			cells.Each(func(i int, cell *goquery.Selection) {
				name := cellText(cell)
				if name == "" {
					name = fmt.Sprintf("#%d", i)
				}
				t.Headers = append(t.Headers, name)
			})
			return
		}

		// Rows without data cells are spacers or repeated headers.
		if cells.Filter("td").Length() == 0 {
			return
		}
		row := make(Row, cells.Length())
		cells.Each(func(i int, cell *goquery.Selection) {
			row[columnName(t.Headers, i)] = cellText(cell)
		})
		t.Rows = append(t.Rows, row)
	})

	return t
}

func columnName(headers []string, i int) string {
	if i < len(headers) {
		return headers[i]
	}
	return fmt.Sprintf("#%d", i)
}

// cellText collapses internal whitespace, including non-breaking spaces.
func cellText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// ExtractAthleteTables selects the summary, annual-bests and all-results
// tables by position and checks the layout before anything reads them.
// It never guesses: any mismatch is returned as a *SchemaError.
func ExtractAthleteTables(html string) (*AthleteTables, error) {
	tables, err := ExtractTables(html)
	if err != nil {
		return nil, &SchemaError{Problems: []string{err.Error()}}
	}

	if len(tables) < len(athleteLayout) {
		return nil, &SchemaError{Problems: []string{
			fmt.Sprintf("expected at least %d tables, found %d", len(athleteLayout), len(tables)),
		}}
	}

	named := make(map[string]Table, len(athleteLayout))
	var problems []string
	for _, want := range athleteLayout {
		t := tables[want.index]
		for _, col := range want.required {
			if !t.HasColumn(col) {
				problems = append(problems, fmt.Sprintf("table %s (#%d) is missing column %q", want.name, want.index, col))
			}
		}
		named[want.name] = t
	}
	if len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}

	return &AthleteTables{
		SummaryStats: named[TableSummaryStats],
		AnnualBests:  named[TableAnnualBests],
		AllResults:   named[TableAllResults],
	}, nil
}
