package scraper

import (
	"fmt"
	"strings"
)

// AthleteURL builds the all-results page URL for an athlete.
func AthleteURL(baseURL, athleteID string) string {
	return strings.TrimRight(baseURL, "/") + "/parkrunner/" + athleteID + "/all/"
}

// EventResultsURL builds the latest-results page URL for an event slug.
func EventResultsURL(baseURL, eventSlug string) string {
	return strings.TrimRight(baseURL, "/") + "/" + eventSlug + "/results/latestresults/"
}

// NormalizeAthleteID accepts "123456" or the barcode form "A123456".
func NormalizeAthleteID(s string) (string, error) {
	id := strings.TrimSpace(s)
	id = strings.TrimPrefix(strings.TrimPrefix(id, "A"), "a")
	if id == "" {
		return "", fmt.Errorf("athlete ID is empty")
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("athlete ID %q must be numeric", s)
		}
	}
	return id, nil
}

// NormalizeEventSlug lowercases an event name into its URL path segment,
// e.g. "Albert Melbourne" -> "albertmelbourne".
func NormalizeEventSlug(s string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
		default:
			return "", fmt.Errorf("event %q contains %q", s, r)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("event name is empty")
	}
	return b.String(), nil
}
