package result

import "github.com/pfrederiksen/parkrun-stats/internal/racetime"

// PersonalBests flags each time that equals the running minimum of all times
// at or before it. The first time is always flagged; a later time equal to the
// standing best is flagged too.
func PersonalBests(times []racetime.FinishTime) []bool {
	flags := make([]bool, len(times))
	var best racetime.FinishTime
	for i, t := range times {
		if i == 0 || t <= best {
			best = t
			flags[i] = true
		}
	}
	return flags
}

// Retag returns a copy of rows, assumed chronological, with PB recomputed
// over exactly these rows. Filtering to one event and retagging yields that
// event's course bests.
func Retag(rows []Row) []Row {
	times := make([]racetime.FinishTime, len(rows))
	for i, r := range rows {
		times[i] = r.Time
	}
	flags := PersonalBests(times)

	out := make([]Row, len(rows))
	for i, r := range rows {
		r.PB = flags[i]
		out[i] = r
	}
	return out
}
