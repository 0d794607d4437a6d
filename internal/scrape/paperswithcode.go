// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/pkg/types"
)

const (
	pwcDefaultBase     = "https://paperswithcode.com/api/v1"
	pwcDefaultPerPage  = 50
	pwcDefaultMaxPages = 10
)

// PapersWithCode pages through the Papers with Code paper listing and can
// attach the datasets linked to each paper. Without an API key the service
// may answer with an HTML page, which ends paging.
type PapersWithCode struct {
	source
	apiKey          string
	perPage         int
	maxPages        int
	includeDatasets bool
}

// NewPapersWithCode returns a Papers with Code scraper.
func NewPapersWithCode(cfg types.PapersWithCodeConfig, o Options) *PapersWithCode {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = pwcDefaultPerPage
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = pwcDefaultMaxPages
	}
	return &PapersWithCode{
		source:          newSource("papers_with_code", pwcDefaultBase, cfg.SourceConfig, o),
		apiKey:          cfg.APIKey,
		perPage:         perPage,
		maxPages:        maxPages,
		includeDatasets: cfg.IncludeDatasets,
	}
}

// FetchRecent returns papers published within the last days.
func (s *PapersWithCode) FetchRecent(ctx context.Context, days int) ([]types.Paper, error) {
	cutoff := s.cutoff(days)
	c := newCollector()
	var attempts, failures int
	var lastErr error

	for page := 1; page <= s.maxPages; page++ {
		attempts++
		var pr pwcPage
		if err := s.fetchJSON(ctx, fmt.Sprintf("%s/papers/?%s", s.baseURL, url.Values{
			"page":           {strconv.Itoa(page)},
			"items_per_page": {strconv.Itoa(s.perPage)},
		}.Encode()), &pr); err != nil {
			failures++
			lastErr = err
			s.requestFailed(ctx, err, zap.Int("page", page))
			break
		}

		for _, item := range pr.Results {
			p, ok := pwcPaper(item)
			if !ok || p.Published.Before(cutoff) {
				continue
			}
			if s.includeDatasets {
				p.DatasetMentions = s.datasets(ctx, item.ID)
			}
			c.add(p)
		}
		if len(pr.Results) < s.perPage || pr.Next == nil {
			break
		}
	}

	s.logger.Debug("fetched papers", zap.String("source", s.name), zap.Int("count", len(c.papers)))
	return outcome(ctx, c.papers, attempts, failures, lastErr)
}

// FetchSince returns papers published since the checkpoint.
func (s *PapersWithCode) FetchSince(ctx context.Context, since time.Time) ([]types.Paper, error) {
	return s.FetchRecent(ctx, daysSince(s.now(), since))
}

// datasets looks up dataset names linked to a paper. Failures yield none.
func (s *PapersWithCode) datasets(ctx context.Context, paperID string) []string {
	var dr pwcDatasets
	if err := s.fetchJSON(ctx, s.baseURL+"/papers/"+url.PathEscape(paperID)+"/datasets/", &dr); err != nil {
		s.requestFailed(ctx, err, zap.String("paper_id", paperID))
		return nil
	}
	var out []string
	for _, d := range dr.Results {
		name := d.Name
		if name == "" {
			name = d.Dataset.Name
		}
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// fetchJSON is getJSON plus the token header and a content-type check.
func (s *PapersWithCode) fetchJSON(ctx context.Context, rawURL string, v any) error {
	header := http.Header{}
	if s.apiKey != "" {
		header.Set("Authorization", "Token "+s.apiKey)
	}
	body, respHeader, err := s.get(ctx, rawURL, header)
	if err != nil {
		return err
	}
	if ct := respHeader.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return fmt.Errorf("%s: %w (content type %q)", s.name, errNotJSON, ct)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing %s response: %w", s.name, err)
	}
	return nil
}

// pwcPaper converts one listing entry. Entries without an abstract or a
// parseable publication date are skipped.
func pwcPaper(item pwcItem) (types.Paper, bool) {
	abstract := cleanText(item.Abstract)
	if item.ID == "" || abstract == "" {
		return types.Paper{}, false
	}
	published, ok := parsePWCDate(item.Published)
	if !ok {
		return types.Paper{}, false
	}

	link := item.URLAbs
	switch {
	case link != "":
	case item.ArxivID != "":
		link = "https://arxiv.org/abs/" + item.ArxivID
	default:
		link = "https://paperswithcode.com/paper/" + item.ID
	}

	return types.Paper{
		ID:        "pwc_" + item.ID,
		Title:     cleanText(item.Title),
		Abstract:  abstract,
		Authors:   []string(item.Authors),
		Published: published,
		Source:    "papers_with_code",
		URL:       link,
		Venue:     item.Conference,
	}, true
}

// parsePWCDate accepts date-only and RFC 3339 timestamps.
func parsePWCDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Papers with Code API JSON structures.
type pwcPage struct {
	Count   int       `json:"count"`
	Next    *string   `json:"next"`
	Results []pwcItem `json:"results"`
}

type pwcItem struct {
	ID         string `json:"id"`
	ArxivID    string `json:"arxiv_id"`
	URLAbs     string `json:"url_abs"`
	Title      string `json:"title"`
	Abstract   string `json:"abstract"`
	Authors    names  `json:"authors"`
	Published  string `json:"published"`
	Conference string `json:"conference"`
}

type pwcDatasets struct {
	Results []struct {
		Name    string `json:"name"`
		Dataset struct {
			Name string `json:"name"`
		} `json:"dataset"`
	} `json:"results"`
}
