package scraper

import (
	"fmt"
	"strconv"
	"strings"
)

// ExtractBetween returns the trimmed text between the first occurrence of
// start and the first occurrence of end after it.
func ExtractBetween(text, start, end string) (string, error) {
	i := strings.Index(text, start)
	if i < 0 {
		return "", fmt.Errorf("%w: start %q", ErrMarkerNotFound, start)
	}
	rest := text[i+len(start):]

	j := strings.Index(rest, end)
	if j < 0 {
		return "", fmt.Errorf("%w: end %q", ErrMarkerNotFound, end)
	}
	return strings.TrimSpace(rest[:j]), nil
}

// Profile field names.
const (
	FieldAthleteName     = "athlete_name"
	FieldAthleteID       = "athlete_id"
	FieldTotalRuns       = "total_runs"
	FieldLastAgeCategory = "last_age_category"
	FieldMilestoneClub   = "milestone_club"
)

// ProfileRule extracts one profile field from the raw page.
type ProfileRule struct {
	Field    string
	Start    string
	End      string
	Required bool
}

// ProfileRules mirror how the athlete page renders its header block. The
// name is followed by a literal non-breaking space (U+00A0), not an entity:
//
//	<h2>Jane DOE <span style="font-weight: normal;" title="parkrun ID">(A123456)</span></h2>
//	<h3>
//	245 parkruns total</h3>
//	Most recent age category was VW40-44
var ProfileRules = []ProfileRule{
	{Field: FieldAthleteName, Start: "<h2>", End: "\u00a0<span style=\"font-weight: normal;\" title=\"parkrun ID\"", Required: true},
	{Field: FieldTotalRuns, Start: "<h3>\n", End: "parkruns total", Required: true},
	{Field: FieldLastAgeCategory, Start: "Most recent age category was ", End: "\n", Required: true},
	{Field: FieldAthleteID, Start: "title=\"parkrun ID\">(", End: ")"},
	{Field: FieldMilestoneClub, Start: "Member of the parkrun", End: "Club"},
}

// Profile holds the identity fields of an athlete page.
type Profile struct {
	Name            string `json:"name"`
	AthleteID       string `json:"athlete_id,omitempty"`
	TotalRuns       int    `json:"total_runs"`
	LastAgeCategory string `json:"last_age_category"`
	MilestoneClub   string `json:"milestone_club,omitempty"`
}

// ExtractFields applies each rule to html independently. Values holds every
// field that matched; the returned slice holds one FieldError per rule that
// did not, in rule order.
func ExtractFields(html string, rules []ProfileRule) (map[string]string, []*FieldError) {
	values := make(map[string]string, len(rules))
	var failed []*FieldError
	for _, rule := range rules {
		v, err := ExtractBetween(html, rule.Start, rule.End)
		if err != nil {
			failed = append(failed, &FieldError{Field: rule.Field, Err: err})
			continue
		}
		values[rule.Field] = v
	}
	return values, failed
}

// ExtractProfile builds a Profile using ProfileRules. A required rule that
// fails, or a run count that is not a number, yields a *ProfileError listing
// every such failure. Optional fields are left empty when absent.
func ExtractProfile(html string) (*Profile, error) {
	values, failed := ExtractFields(html, ProfileRules)

	required := make(map[string]bool, len(ProfileRules))
	for _, rule := range ProfileRules {
		required[rule.Field] = rule.Required
	}

	var problems []*FieldError
	for _, fe := range failed {
		if required[fe.Field] {
			problems = append(problems, fe)
		}
	}

	p := &Profile{
		Name:            values[FieldAthleteName],
		AthleteID:       values[FieldAthleteID],
		LastAgeCategory: values[FieldLastAgeCategory],
		MilestoneClub:   values[FieldMilestoneClub],
	}

	if raw, ok := values[FieldTotalRuns]; ok {
		n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			problems = append(problems, &FieldError{Field: FieldTotalRuns, Err: fmt.Errorf("not a number: %q", raw)})
		}
		p.TotalRuns = n
	}

	if len(problems) > 0 {
		return nil, &ProfileError{Fields: problems}
	}
	return p, nil
}
