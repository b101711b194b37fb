// Package stats derives views over a normalized run history: the monthly
// attendance grid, per-location summaries and overall totals. It also reads
// the upstream summary and annual-best tables into typed values.
//
// Every function is pure and returns freshly allocated values.
package stats
