package cli

import (
	"testing"

	"github.com/pfrederiksen/parkrun-stats/internal/result"
)

func TestSortDisplay(t *testing.T) {
	rows := func() []result.DisplayRow {
		return []result.DisplayRow{
			{Index: 1, Event: "riverside", Time: "30:00"},
			{Index: 2, Event: "Lakeview", Time: "28:30"},
			{Index: 3, Event: "Riverside", Time: "1:01:00"},
			{Index: 4, Event: "Lakeview", Time: "28:30"},
		}
	}

	tests := []struct {
		order SortOrder
		want  []int
	}{
		{SortByDate, []int{4, 3, 2, 1}},
		{SortByEvent, []int{4, 2, 3, 1}},
		{SortByTime, []int{4, 2, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := rows()
			sortDisplay(got, tt.order)
			for i, r := range got {
				if r.Index != tt.want[i] {
					t.Fatalf("order %s = %v, want %v", tt.order, indexes(got), tt.want)
				}
			}
		})
	}
}

func indexes(rows []result.DisplayRow) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Index
	}
	return out
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    SortOrder
		wantErr bool
	}{
		{"", SortByDate, false},
		{"Event", SortByEvent, false},
		{"time", SortByTime, false},
		{"state", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortOrder(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %v, %v", tt.input, got, err)
		}
	}
}
