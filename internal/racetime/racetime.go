// Package racetime holds the single internal representation of a finish time.
//
// Times are kept as whole seconds. Minutes and display strings are always
// derived from the seconds value, never parsed back from a display string.
package racetime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTime is returned for text that is not "mm:ss" or "h:mm:ss".
var ErrInvalidTime = errors.New("invalid finish time")

// FinishTime is a finish time in whole seconds.
type FinishTime int

// Split breaks "hh:mm:ss" or "mm:ss" into its parts. Two parts are minutes
// and seconds, three parts are hours, minutes and seconds; any other count
// is an error.
func Split(s string) (hours, minutes, seconds int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		nums[i] = n
	}

	switch len(nums) {
	case 2:
		return 0, nums[0], nums[1], nil
	case 3:
		return nums[0], nums[1], nums[2], nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %q has %d parts", ErrInvalidTime, s, len(parts))
	}
}

// Parse converts finish-time text into a FinishTime.
func Parse(s string) (FinishTime, error) {
	h, m, sec, err := Split(s)
	if err != nil {
		return 0, err
	}
	return FinishTime(h*3600 + m*60 + sec), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) FinishTime {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Seconds returns the time in whole seconds.
func (t FinishTime) Seconds() int {
	return int(t)
}

// Minutes returns hours*60 + minutes + seconds/60.
func (t FinishTime) Minutes() float64 {
	return float64(t) / 60
}

// String renders "mm:ss" below one hour and "h:mm:ss" from one hour up.
func (t FinishTime) String() string {
	total := int(t)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// MarshalText renders the display form so JSON output stays human readable.
func (t FinishTime) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the same forms as Parse.
func (t *FinishTime) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
