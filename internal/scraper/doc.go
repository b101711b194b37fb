// Package scraper fetches parkrun result pages and pulls structured values out of them.
//
// It has three layers. Client issues a single browser-like GET and returns the
// raw page. ExtractTables and ExtractAthleteTables turn the HTML into named
// tables and validate that the upstream layout still matches what the rest of
// the pipeline expects. The field parsers (ExtractBetween, ExtractProfile and
// the latest-results cell parsers) are pure string functions that slice
// compound cells and free-text fragments using the site's rendering conventions.
package scraper
