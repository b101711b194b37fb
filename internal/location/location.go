// Package location loads the parkrun event-location feed: a GeoJSON feature
// collection of every event with its short and long names and coordinates.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/parkrun-stats/internal/scraper"
	"github.com/pfrederiksen/parkrun-stats/internal/stats"
)

// ErrBadFeed is returned when the feed body is not the expected document.
var ErrBadFeed = errors.New("malformed event feed")

// Fetcher retrieves one page. *scraper.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// Location is one event from the feed.
type Location struct {
	ID          int     `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	LongName    string  `json:"long_name"`
	Place       string  `json:"place,omitempty"`
	CountryCode int     `json:"country_code"`
	SeriesID    int     `json:"series_id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type feed struct {
	Events *struct {
		Type     string    `json:"type"`
		Features []feature `json:"features"`
	} `json:"events"`
}

type feature struct {
	ID       int `json:"id"`
	Geometry struct {
		Type string `json:"type"`
		// GeoJSON order: longitude, latitude.
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		EventName      string `json:"eventname"`
		EventLongName  string `json:"EventLongName"`
		EventShortName string `json:"EventShortName"`
		CountryCode    int    `json:"countrycode"`
		SeriesID       int    `json:"seriesid"`
		EventLocation  string `json:"EventLocation"`
	} `json:"properties"`
}

// Client loads the feed from a fixed URL.
type Client struct {
	fetcher Fetcher
	url     string
}

// NewClient creates a feed client.
func NewClient(fetcher Fetcher, feedURL string) *Client {
	return &Client{fetcher: fetcher, url: feedURL}
}

// Fetch downloads and decodes the feed.
func (c *Client) Fetch(ctx context.Context) ([]Location, error) {
	page, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		return nil, err
	}
	return Decode([]byte(page.Body))
}

// Decode parses a feed document. Features without a point geometry are skipped.
func Decode(data []byte) ([]Location, error) {
	var doc feed
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFeed, err)
	}
	if doc.Events == nil {
		return nil, fmt.Errorf("%w: no events collection", ErrBadFeed)
	}

	locs := make([]Location, 0, len(doc.Events.Features))
	for _, f := range doc.Events.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		p := f.Properties
		locs = append(locs, Location{
			ID:          f.ID,
			Slug:        p.EventName,
			Name:        p.EventShortName,
			LongName:    p.EventLongName,
			Place:       p.EventLocation,
			CountryCode: p.CountryCode,
			SeriesID:    p.SeriesID,
			Longitude:   f.Geometry.Coordinates[0],
			Latitude:    f.Geometry.Coordinates[1],
		})
	}
	return locs, nil
}

// Index looks up locations by name.
type Index struct {
	all    []Location
	byName map[string]int
}

func key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NewIndex indexes locations by short name, long name and slug. The first
// location wins when two share a name.
func NewIndex(locs []Location) *Index {
	idx := &Index{
		all:    append([]Location(nil), locs...),
		byName: make(map[string]int, len(locs)*3),
	}
	for i, l := range idx.all {
		for _, name := range []string{l.Name, l.LongName, l.Slug} {
			if k := key(name); k != "" {
				if _, taken := idx.byName[k]; !taken {
					idx.byName[k] = i
				}
			}
		}
	}
	return idx
}

// Lookup finds a location by short name, long name or slug, ignoring case.
// Results pages name events by short name, e.g. "Riverside".
func (idx *Index) Lookup(name string) (Location, bool) {
	i, ok := idx.byName[key(name)]
	if !ok {
		return Location{}, false
	}
	return idx.all[i], true
}

// All returns the indexed locations sorted by name.
func (idx *Index) All() []Location {
	out := append([]Location(nil), idx.all...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of indexed locations.
func (idx *Index) Len() int {
	return len(idx.all)
}

// Visited is a location summary placed on the map.
type Visited struct {
	stats.LocationSummary
	Location *Location `json:"location,omitempty"`
}

// Join attaches feed locations to summaries, keeping the summaries' order.
// Events missing from the feed keep a nil Location.
func (idx *Index) Join(summaries []stats.LocationSummary) []Visited {
	out := make([]Visited, len(summaries))
	for i, s := range summaries {
		out[i] = Visited{LocationSummary: s}
		if l, ok := idx.Lookup(s.Event); ok {
			l := l
			out[i].Location = &l
		}
	}
	return out
}
