// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches recent papers from academic sources and normalizes
// them into types.Paper records. Every scraper shares one request policy per
// source (minimum interval plus 429 backoff) and degrades per request: a
// failed category, query, or venue is logged and skipped.
package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pdiddy/research-radar/internal/httputil"
	"github.com/pdiddy/research-radar/pkg/types"
)

const defaultTimeout = 30 * time.Second

// Scraper fetches papers from one source.
type Scraper interface {
	Name() string
	// FetchRecent returns papers published within the last lookbackDays.
	FetchRecent(ctx context.Context, lookbackDays int) ([]types.Paper, error)
	// FetchSince returns papers published at or after since.
	FetchSince(ctx context.Context, since time.Time) ([]types.Paper, error)
}

// Options carries the HTTP settings shared by every scraper.
type Options struct {
	Client    *http.Client
	UserAgent string
	Logger    *zap.Logger
}

// source is the plumbing embedded in every scraper.
type source struct {
	name      string
	baseURL   string
	userAgent string
	client    *http.Client
	policy    *httputil.Policy
	logger    *zap.Logger
	now       func() time.Time
}

func newSource(name, defaultBase string, sc types.SourceConfig, o Options) source {
	base := sc.BaseURL
	if base == "" {
		base = defaultBase
	}
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return source{
		name:      name,
		baseURL:   strings.TrimRight(base, "/"),
		userAgent: o.UserAgent,
		client:    client,
		policy:    httputil.NewPolicy(name, sc.Rate, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// Name returns the source identifier.
func (s *source) Name() string { return s.name }

// get issues a GET under the source policy and returns the 2xx body.
func (s *source) get(ctx context.Context, rawURL string, header http.Header) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	body, respHeader, err := s.policy.Fetch(ctx, s.client, req)
	if err != nil {
		return nil, respHeader, fmt.Errorf("%s request: %w", s.name, err)
	}
	return body, respHeader, nil
}

// getJSON fetches rawURL and decodes the body into v.
func (s *source) getJSON(ctx context.Context, rawURL string, header http.Header, v any) error {
	body, _, err := s.get(ctx, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing %s response: %w", s.name, err)
	}
	return nil
}

// requestFailed logs a skipped request. It reports whether the caller should
// stop because ctx is done.
func (s *source) requestFailed(ctx context.Context, err error, fields ...zap.Field) bool {
	if ctx.Err() != nil {
		return true
	}
	s.logger.Warn("request failed, skipping",
		append([]zap.Field{zap.String("source", s.name), zap.Error(err)}, fields...)...)
	return false
}

// cutoff returns the earliest publication time inside the lookback window.
func (s *source) cutoff(days int) time.Time {
	return s.now().UTC().AddDate(0, 0, -days)
}

// daysSince converts a checkpoint into a lookback window: whole days elapsed
// plus one, and never less than one.
func daysSince(now, since time.Time) int {
	if !since.Before(now) {
		return 1
	}
	return int(now.Sub(since).Hours()/24) + 1
}

// years lists every calendar year from the cutoff to now, inclusive.
func years(cutoff, now time.Time) []int {
	var out []int
	for y := cutoff.Year(); y <= now.Year(); y++ {
		out = append(out, y)
	}
	return out
}

// outcome decides what a scraper returns once all requests ran. When every
// request failed the last error is surfaced so callers can count the source
// as failed; otherwise partial results win.
func outcome(ctx context.Context, papers []types.Paper, attempts, failures int, lastErr error) ([]types.Paper, error) {
	if err := ctx.Err(); err != nil {
		return papers, err
	}
	if attempts > 0 && failures == attempts {
		return nil, fmt.Errorf("all %d requests failed: %w", attempts, lastErr)
	}
	return papers, nil
}

// collector accumulates papers, dropping repeated IDs.
type collector struct {
	seen   map[string]bool
	papers []types.Paper
}

func newCollector() *collector {
	return &collector{seen: make(map[string]bool)}
}

func (c *collector) add(p types.Paper) {
	if p.ID == "" || c.seen[p.ID] {
		return
	}
	c.seen[p.ID] = true
	c.papers = append(c.papers, p)
}

// cleanText strips markup (JATS or HTML tags, entities) and collapses
// whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// names decodes author or venue fields that arrive as a string, an object
// with a name, or a list of either.
type names []string

func (n *names) UnmarshalJSON(b []byte) error {
	*n = nil
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		for _, item := range items {
			if name := decodeName(item); name != "" {
				*n = append(*n, name)
			}
		}
		return nil
	}
	if name := decodeName(b); name != "" {
		*n = names{name}
	}
	return nil
}

func decodeName(b []byte) string {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Name string `json:"name"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		if obj.Name != "" {
			return strings.TrimSpace(obj.Name)
		}
		return strings.TrimSpace(obj.Text)
	}
	return ""
}

// FromConfig builds the enabled scrapers in a stable order.
func FromConfig(cfg types.SourcesConfig, httpCfg types.HTTPConfig, logger *zap.Logger) []Scraper {
	timeout := httpCfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	o := Options{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: httpCfg.UserAgent,
		Logger:    logger,
	}

	var out []Scraper
	if cfg.Arxiv.Enabled {
		out = append(out, NewArxiv(cfg.Arxiv, o))
	}
	if cfg.SemanticScholar.Enabled {
		out = append(out, NewSemanticScholar(cfg.SemanticScholar, o))
	}
	if cfg.OpenAlex.Enabled {
		out = append(out, NewOpenAlex(cfg.OpenAlex, o))
	}
	if cfg.DBLP.Enabled {
		out = append(out, NewDBLP(cfg.DBLP, o))
	}
	if cfg.PapersWithCode.Enabled {
		out = append(out, NewPapersWithCode(cfg.PapersWithCode, o))
	}
	return out
}

// errNotJSON marks responses that are not JSON (HTML error pages).
var errNotJSON = errors.New("response is not JSON")
