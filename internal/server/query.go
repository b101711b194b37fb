package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pfrederiksen/parkrun-stats/internal/filter"
	"github.com/pfrederiksen/parkrun-stats/internal/stats"
)

// parseFilter reads event, pb_only, from, to, range and last.
// from/to take precedence over the matching side of range.
func parseFilter(q url.Values) (*filter.Filter, error) {
	f := filter.New()

	for _, ev := range q["event"] {
		for _, name := range strings.Split(ev, ",") {
			if name = strings.TrimSpace(name); name != "" {
				f.Events = append(f.Events, name)
			}
		}
	}

	if v := q.Get("pb_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("pb_only: %q is not a boolean", v)
		}
		f.PBOnly = b
	}

	if v := q.Get("range"); v != "" {
		from, to, err := filter.ParseDateRange(v)
		if err != nil {
			return nil, fmt.Errorf("range: %w", err)
		}
		f.From, f.To = from, to
	}
	if v := q.Get("from"); v != "" {
		from, _, err := filter.ParseDateRange(v)
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		f.From = from
	}
	if v := q.Get("to"); v != "" {
		_, to, err := filter.ParseDateRange(v)
		if err != nil {
			return nil, fmt.Errorf("to: %w", err)
		}
		f.To = to
	}

	if v := q.Get("last"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("last: %q is not a non-negative integer", v)
		}
		f.Last = n
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func parseOrder(q url.Values) (stats.Order, error) {
	return stats.ParseOrder(q.Get("order_by"))
}
