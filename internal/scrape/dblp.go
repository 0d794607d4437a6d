// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/pkg/types"
)

const (
	dblpDefaultBase    = "https://dblp.org/search/publ/api"
	dblpDefaultMaxHits = 100
)

var defaultDBLPVenues = []string{"NeurIPS", "ICLR", "ICML"}

// DBLP searches the DBLP publication index by venue and year. DBLP carries
// metadata only: abstracts are usually empty and dates resolve to January 1
// of the publication year.
type DBLP struct {
	source
	venues  []string
	maxHits int
}

// NewDBLP returns a DBLP scraper.
func NewDBLP(cfg types.DBLPConfig, o Options) *DBLP {
	venues := cfg.Venues
	if len(venues) == 0 {
		venues = defaultDBLPVenues
	}
	maxHits := cfg.MaxHits
	if maxHits <= 0 {
		maxHits = dblpDefaultMaxHits
	}
	return &DBLP{
		source:  newSource("dblp", dblpDefaultBase, cfg.SourceConfig, o),
		venues:  venues,
		maxHits: maxHits,
	}
}

// FetchRecent returns publications from every year the lookback window
// touches.
func (d *DBLP) FetchRecent(ctx context.Context, days int) ([]types.Paper, error) {
	now := d.now().UTC()
	cutoff := d.cutoff(days)
	c := newCollector()
	var attempts, failures int
	var lastErr error

search:
	for _, venue := range d.venues {
		for _, year := range years(cutoff, now) {
			attempts++
			papers, err := d.search(ctx, venue, year)
			if err != nil {
				failures++
				lastErr = err
				if d.requestFailed(ctx, err, zap.String("venue", venue), zap.Int("year", year)) {
					break search
				}
				continue
			}
			for _, p := range papers {
				if p.Published.Year() < cutoff.Year() {
					continue
				}
				c.add(p)
			}
		}
	}

	d.logger.Debug("fetched papers", zap.String("source", d.name), zap.Int("count", len(c.papers)))
	return outcome(ctx, c.papers, attempts, failures, lastErr)
}

// FetchSince returns publications since the checkpoint year.
func (d *DBLP) FetchSince(ctx context.Context, since time.Time) ([]types.Paper, error) {
	return d.FetchRecent(ctx, daysSince(d.now(), since))
}

func (d *DBLP) search(ctx context.Context, venue string, year int) ([]types.Paper, error) {
	params := url.Values{
		"q":      {"venue:" + venue + " year:" + strconv.Itoa(year)},
		"format": {"json"},
		"h":      {strconv.Itoa(d.maxHits)},
	}
	var dr dblpResponse
	if err := d.getJSON(ctx, d.baseURL+"?"+params.Encode(), nil, &dr); err != nil {
		return nil, err
	}

	papers := make([]types.Paper, 0, len(dr.Result.Hits.Hit))
	for _, hit := range dr.Result.Hits.Hit {
		if p, ok := dblpPaper(hit.Info, venue); ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// dblpPaper converts one hit. Hits without a title, year, or key are
// skipped; a missing abstract is expected.
func dblpPaper(info dblpInfo, queriedVenue string) (types.Paper, bool) {
	title := strings.TrimSuffix(cleanText(info.Title), ".")
	if title == "" || info.Year == 0 || info.Key == "" {
		return types.Paper{}, false
	}

	link := info.URL
	if link == "" {
		link = "https://dblp.org/rec/" + info.Key
	}
	venue := queriedVenue
	if len(info.Venue) > 0 {
		venue = info.Venue[0]
	}

	return types.Paper{
		ID:        "dblp_" + strings.ReplaceAll(info.Key, "/", "_"),
		Title:     title,
		Abstract:  cleanText(info.Abstract),
		Authors:   []string(info.Authors.Author),
		Published: time.Date(int(info.Year), 1, 1, 0, 0, 0, 0, time.UTC),
		Source:    "dblp",
		URL:       link,
		Venue:     venue,
	}, true
}

// DBLP API JSON structures.
type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []dblpHit `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpHit struct {
	Info dblpInfo `json:"info"`
}

type dblpInfo struct {
	Key      string      `json:"key"`
	Title    string      `json:"title"`
	Year     dblpYear    `json:"year"`
	Venue    names       `json:"venue"`
	URL      string      `json:"url"`
	Abstract string      `json:"abstract"`
	Authors  dblpAuthors `json:"authors"`
}

// dblpAuthors holds the author field, which is an object for a single
// author and a list otherwise.
type dblpAuthors struct {
	Author names `json:"author"`
}

// dblpYear accepts the year as a string or a number.
type dblpYear int

func (y *dblpYear) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		n, convErr := strconv.Atoi(strings.TrimSpace(s))
		if convErr != nil {
			*y = 0
			return nil
		}
		*y = dblpYear(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		*y = 0
		return nil
	}
	*y = dblpYear(n)
	return nil
}
