package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	yearPattern      = regexp.MustCompile(`^(\d{4})$`)
	yearMonthPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	monthYearPattern = regexp.MustCompile(`(?i)^([a-z]+)\s+(\d{4})$`)
)

// ParseDateRange parses a date range string into start and end dates.
//
// Supported formats:
//   - "2023" - the whole year
//   - "2023-04" or "April 2023" / "Apr 2023" - the whole month
//   - "2023-03-18" - a single day
//   - "2023-01-01..2023-06-30" - an explicit range; either side may be empty
//
// Runs only happen in the past, so every format carries its own year.
// Dates are UTC calendar dates; both ends are inclusive.
func ParseDateRange(input string) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if left, right, ok := strings.Cut(input, ".."); ok {
		var from, to *time.Time
		if s := strings.TrimSpace(left); s != "" {
			d, err := parseDay(s)
			if err != nil {
				return nil, nil, err
			}
			from = &d
		}
		if s := strings.TrimSpace(right); s != "" {
			d, err := parseDay(s)
			if err != nil {
				return nil, nil, err
			}
			to = &d
		}
		if from == nil && to == nil {
			return nil, nil, fmt.Errorf("date range needs at least one bound")
		}
		if from != nil && to != nil && from.After(*to) {
			return nil, nil, fmt.Errorf("start date must be before end date")
		}
		return from, to, nil
	}

	if m := yearPattern.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		return &from, &to, nil
	}

	if m := yearMonthPattern.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return nil, nil, fmt.Errorf("invalid month: %s", m[2])
		}
		return monthRange(year, time.Month(month))
	}

	if m := monthYearPattern.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		if month == 0 {
			return nil, nil, fmt.Errorf("invalid month: %s", m[1])
		}
		year, _ := strconv.Atoi(m[2])
		return monthRange(year, month)
	}

	if d, err := parseDay(input); err == nil {
		return &d, &d, nil
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use '2023', '2023-04', 'April 2023', '2023-03-18' or '2023-01-01..2023-06-30'")
}

func parseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

func monthRange(year int, month time.Month) (*time.Time, *time.Time, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the next month is the last day of this one.
	to := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return &from, &to, nil
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))

	months := map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}

	return months[name]
}
