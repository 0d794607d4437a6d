// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/pkg/types"
)

const (
	arxivDefaultBase       = "https://export.arxiv.org/api/query"
	arxivDefaultMaxResults = 100
)

// Arxiv queries the arXiv Atom API, newest submissions first, once per
// configured subject category. arXiv does not report citations.
type Arxiv struct {
	source
	categories []string
	maxResults int
}

// NewArxiv returns an arXiv scraper.
func NewArxiv(cfg types.ArxivConfig, o Options) *Arxiv {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = arxivDefaultMaxResults
	}
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = []string{"cs.AI"}
	}
	return &Arxiv{
		source:     newSource("arxiv", arxivDefaultBase, cfg.SourceConfig, o),
		categories: categories,
		maxResults: maxResults,
	}
}

// FetchRecent returns papers submitted within the last days.
func (a *Arxiv) FetchRecent(ctx context.Context, days int) ([]types.Paper, error) {
	cutoff := a.cutoff(days)
	c := newCollector()
	var failures int
	var lastErr error

	for _, cat := range a.categories {
		papers, err := a.fetchCategory(ctx, cat)
		if err != nil {
			failures++
			lastErr = err
			if a.requestFailed(ctx, err, zap.String("category", cat)) {
				break
			}
			continue
		}
		for _, p := range papers {
			if p.Published.Before(cutoff) {
				continue
			}
			c.add(p)
		}
	}

	a.logger.Debug("fetched papers", zap.String("source", a.name), zap.Int("count", len(c.papers)))
	return outcome(ctx, c.papers, len(a.categories), failures, lastErr)
}

// FetchSince returns papers submitted since the checkpoint.
func (a *Arxiv) FetchSince(ctx context.Context, since time.Time) ([]types.Paper, error) {
	return a.FetchRecent(ctx, daysSince(a.now(), since))
}

func (a *Arxiv) fetchCategory(ctx context.Context, category string) ([]types.Paper, error) {
	params := url.Values{
		"search_query": {"cat:" + category},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(a.maxResults)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}
	body, _, err := a.get(ctx, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv feed: %w", err)
	}

	papers := make([]types.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		if p, ok := arxivPaper(item); ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// arxivPaper converts one Atom entry. Entries without an arXiv ID or a
// publication date are skipped.
func arxivPaper(item *gofeed.Item) (types.Paper, bool) {
	id := extractArxivID(item.GUID)
	if id == "" {
		id = extractArxivID(item.Link)
	}
	if id == "" || item.PublishedParsed == nil {
		return types.Paper{}, false
	}

	p := types.Paper{
		ID:        "arxiv_" + id,
		Title:     cleanText(item.Title),
		Abstract:  cleanText(item.Description),
		Published: item.PublishedParsed.UTC(),
		Source:    "arxiv",
		URL:       "https://arxiv.org/abs/" + id,
		Venue:     arxivJournalRef(item),
	}
	for _, author := range item.Authors {
		if author != nil && strings.TrimSpace(author.Name) != "" {
			p.Authors = append(p.Authors, strings.TrimSpace(author.Name))
		}
	}
	return p, true
}

// arxivJournalRef returns the arxiv:journal_ref extension, if any.
func arxivJournalRef(item *gofeed.Item) string {
	ns, ok := item.Extensions["arxiv"]
	if !ok {
		return ""
	}
	for _, ext := range ns["journal_ref"] {
		if v := strings.TrimSpace(ext.Value); v != "" {
			return v
		}
	}
	return ""
}

// extractArxivID pulls the arXiv ID from an entry URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" yields "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
