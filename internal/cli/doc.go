// Package cli implements the command-line interface for parkrun-stats.
//
// The cli package provides the Cobra-based CLI. Each command fetches one
// upstream page, runs it through the analysis pipeline and prints the result
// as text, JSON or CSV. It also starts the HTTP API (serve).
package cli
