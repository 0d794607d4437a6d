// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/pkg/types"
)

const (
	semanticDefaultBase  = "https://api.semanticscholar.org/graph/v1"
	semanticDefaultLimit = 50
	semanticFields       = "paperId,title,abstract,authors,year,publicationDate,venue,citationCount,url,externalIds"
)

// defaultSemanticQueries target papers that release or describe datasets.
var defaultSemanticQueries = []string{
	"machine learning dataset release",
	"benchmark dataset evaluation",
	"training data open source",
	"multimodal dataset collection",
	"annotated dataset computer vision",
	"natural language dataset corpus",
}

// SemanticScholar runs keyword searches against the Semantic Scholar Graph
// API for every year the lookback window touches.
type SemanticScholar struct {
	source
	apiKey  string
	queries []string
	limit   int
}

// NewSemanticScholar returns a Semantic Scholar scraper.
func NewSemanticScholar(cfg types.SemanticScholarConfig, o Options) *SemanticScholar {
	queries := cfg.Queries
	if len(queries) == 0 {
		queries = defaultSemanticQueries
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = semanticDefaultLimit
	}
	return &SemanticScholar{
		source:  newSource("semantic_scholar", semanticDefaultBase, cfg.SourceConfig, o),
		apiKey:  cfg.APIKey,
		queries: queries,
		limit:   limit,
	}
}

// FetchRecent returns papers published within the last days.
func (s *SemanticScholar) FetchRecent(ctx context.Context, days int) ([]types.Paper, error) {
	now := s.now().UTC()
	cutoff := s.cutoff(days)
	c := newCollector()
	var attempts, failures int
	var lastErr error

search:
	for _, year := range years(cutoff, now) {
		for _, q := range s.queries {
			attempts++
			papers, err := s.search(ctx, q, year)
			if err != nil {
				failures++
				lastErr = err
				if s.requestFailed(ctx, err, zap.String("query", q), zap.Int("year", year)) {
					break search
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
	}

	s.logger.Debug("fetched papers", zap.String("source", s.name), zap.Int("count", len(c.papers)))
	return outcome(ctx, c.papers, attempts, failures, lastErr)
}

// FetchSince returns papers published since the checkpoint.
func (s *SemanticScholar) FetchSince(ctx context.Context, since time.Time) ([]types.Paper, error) {
	return s.FetchRecent(ctx, daysSince(s.now(), since))
}

func (s *SemanticScholar) search(ctx context.Context, query string, year int) ([]types.Paper, error) {
	params := url.Values{
		"query":  {query},
		"year":   {strconv.Itoa(year)},
		"fields": {semanticFields},
		"limit":  {strconv.Itoa(s.limit)},
	}
	header := http.Header{}
	if s.apiKey != "" {
		header.Set("x-api-key", s.apiKey)
	}

	var sr semanticResponse
	if err := s.getJSON(ctx, s.baseURL+"/paper/search?"+params.Encode(), header, &sr); err != nil {
		return nil, err
	}

	papers := make([]types.Paper, 0, len(sr.Data))
	for _, item := range sr.Data {
		if p, ok := semanticPaperRecord(item); ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// semanticPaperRecord converts one search hit. Hits without a year or an
// abstract are skipped.
func semanticPaperRecord(item semanticPaper) (types.Paper, bool) {
	abstract := cleanText(item.Abstract)
	if item.Year == 0 || abstract == "" || item.PaperID == "" {
		return types.Paper{}, false
	}

	published := time.Date(item.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	if item.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", item.PublicationDate); err == nil {
			published = t
		}
	}

	link := item.URL
	switch {
	case link != "":
	case item.ExternalIDs.ArXiv != "":
		link = "https://arxiv.org/abs/" + item.ExternalIDs.ArXiv
	default:
		link = "https://www.semanticscholar.org/paper/" + item.PaperID
	}

	p := types.Paper{
		ID:        "s2_" + item.PaperID,
		Title:     cleanText(item.Title),
		Abstract:  abstract,
		Published: published,
		Source:    "semantic_scholar",
		URL:       link,
		Venue:     item.Venue,
	}
	if item.CitationCount != nil {
		p.CitationCount = types.IntPtr(*item.CitationCount)
	}
	for _, a := range item.Authors {
		if a.Name != "" {
			p.Authors = append(p.Authors, a.Name)
		}
	}
	return p, true
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Venue           string              `json:"venue"`
	CitationCount   *int                `json:"citationCount"`
	URL             string              `json:"url"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
