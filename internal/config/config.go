// Package config defines parkrun-stats configuration and how it is loaded.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// PARKRUN_* environment variables (a local .env file is read first).
package config

import (
	"time"
)

const (
	DefaultBaseURL   = "https://www.parkrun.com.au"
	DefaultEventsURL = "https://images.parkrun.com/events.json"

	// DefaultUserAgent presents the client as a desktop browser; the results
	// site rejects obvious bots.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config contains process configuration.
type Config struct {
	// BaseURL is the results site root, e.g. "https://www.parkrun.org.uk".
	BaseURL string `koanf:"base_url"`

	// EventsURL serves the event-location feature collection.
	EventsURL string `koanf:"events_url"`

	// UserAgent is sent with every upstream request.
	UserAgent string `koanf:"user_agent"`

	// Timeout bounds a single upstream request. Zero keeps the transport default.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond paces upstream requests. Zero disables pacing.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the listen address of the serve command.
	Addr string `koanf:"addr"`

	// Strict makes a single malformed result row fail the whole analysis
	// instead of being dropped.
	Strict bool `koanf:"strict"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		BaseURL:   DefaultBaseURL,
		EventsURL: DefaultEventsURL,
		UserAgent: DefaultUserAgent,
		LogLevel:  "info",
		Addr:      ":8080",
	}
}
