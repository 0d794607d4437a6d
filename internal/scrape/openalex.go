// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/pkg/types"
)

const (
	openAlexDefaultBase     = "https://api.openalex.org"
	openAlexDefaultPerPage  = 100
	openAlexDefaultMaxPages = 10
)

// OpenAlex pages through the OpenAlex Works API with cursor paging. Unlike
// the other sources it filters on the exact publication date, so FetchSince
// does not round the checkpoint to days.
type OpenAlex struct {
	source
	email    string
	concepts []string
	perPage  int
	maxPages int
}

// NewOpenAlex returns an OpenAlex scraper.
func NewOpenAlex(cfg types.OpenAlexConfig, o Options) *OpenAlex {
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > 200 {
		perPage = openAlexDefaultPerPage
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = openAlexDefaultMaxPages
	}
	return &OpenAlex{
		source:   newSource("openalex", openAlexDefaultBase, cfg.SourceConfig, o),
		email:    cfg.Email,
		concepts: cfg.Concepts,
		perPage:  perPage,
		maxPages: maxPages,
	}
}

// FetchRecent returns works published within the last days.
func (b *OpenAlex) FetchRecent(ctx context.Context, days int) ([]types.Paper, error) {
	return b.FetchSince(ctx, b.cutoff(days))
}

// FetchSince returns works published on or after the date of since.
func (b *OpenAlex) FetchSince(ctx context.Context, since time.Time) ([]types.Paper, error) {
	filter := b.filter(since)
	c := newCollector()
	cursor := "*"
	var attempts, failures int
	var lastErr error

	for page := 0; page < b.maxPages; page++ {
		attempts++
		var oar openAlexResponse
		if err := b.getJSON(ctx, b.pageURL(filter, cursor), nil, &oar); err != nil {
			failures++
			lastErr = err
			b.requestFailed(ctx, err, zap.Int("page", page+1))
			break
		}
		for _, work := range oar.Results {
			if p, ok := openAlexPaper(work); ok {
				c.add(p)
			}
		}
		if len(oar.Results) == 0 || oar.Meta.NextCursor == "" {
			break
		}
		cursor = oar.Meta.NextCursor
	}

	b.logger.Debug("fetched papers", zap.String("source", b.name), zap.Int("count", len(c.papers)))
	return outcome(ctx, c.papers, attempts, failures, lastErr)
}

// filter builds the OpenAlex filter expression: a start date plus an OR-ed
// concept restriction.
func (b *OpenAlex) filter(since time.Time) string {
	parts := []string{"from_publication_date:" + since.UTC().Format("2006-01-02")}
	if len(b.concepts) > 0 {
		parts = append(parts, "concepts.id:"+strings.Join(b.concepts, "|"))
	}
	return strings.Join(parts, ",")
}

func (b *OpenAlex) pageURL(filter, cursor string) string {
	params := url.Values{
		"filter":   {filter},
		"per-page": {strconv.Itoa(b.perPage)},
		"cursor":   {cursor},
	}
	if b.email != "" {
		params.Set("mailto", b.email)
	}
	return b.baseURL + "/works?" + params.Encode()
}

// openAlexPaper converts one work. Works without a title, abstract, ID, or
// valid publication date are skipped.
func openAlexPaper(work openAlexWork) (types.Paper, bool) {
	title := cleanText(work.Title)
	abstract := cleanText(reconstructAbstract(work.AbstractInvertedIndex))
	workID := work.ID[strings.LastIndex(work.ID, "/")+1:]
	if title == "" || abstract == "" || workID == "" || work.PublicationDate == "" {
		return types.Paper{}, false
	}
	published, err := time.Parse("2006-01-02", work.PublicationDate)
	if err != nil {
		return types.Paper{}, false
	}

	link := work.DOI
	if link == "" {
		link = work.ID
	}

	p := types.Paper{
		ID:        "openalex_" + workID,
		Title:     title,
		Abstract:  abstract,
		Published: published,
		Source:    "openalex",
		URL:       link,
	}
	if work.CitedByCount != nil {
		p.CitationCount = types.IntPtr(*work.CitedByCount)
	}
	if work.PrimaryLocation != nil && work.PrimaryLocation.Source != nil {
		p.Venue = work.PrimaryLocation.Source.DisplayName
	}
	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			p.Authors = append(p.Authors, authorship.Author.DisplayName)
		}
	}
	return p, true
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count      int    `json:"count"`
	PerPage    int    `json:"per_page"`
	NextCursor string `json:"next_cursor"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	CitedByCount          *int                 `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source *openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}
