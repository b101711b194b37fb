// Package result turns raw all-results table rows into the canonical,
// time-ordered record set of one athlete.
//
// Normalization parses run dates and finish times, orders the runs
// chronologically, numbers them 1..N and marks personal bests with a running
// minimum. Every function here returns new slices and leaves its input alone.
package result
