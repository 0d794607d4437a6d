// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-radar/pkg/types"
)

const sampleSemanticJSON = `{
  "total": 4,
  "data": [
    {
      "paperId": "abc123",
      "title": "Annotated Radiology Reports",
      "abstract": "<p>A <b>curated</b> corpus of radiology reports.</p>",
      "year": 2026,
      "publicationDate": "2026-09-30",
      "venue": "ACL",
      "citationCount": 12,
      "url": "https://www.semanticscholar.org/paper/abc123",
      "authors": [{"authorId": "1", "name": "Ada Lovelace"}],
      "externalIds": {"ArXiv": "2609.00001"}
    },
    {
      "paperId": "noyear",
      "title": "Missing Year",
      "abstract": "Has an abstract.",
      "year": null,
      "authors": []
    },
    {
      "paperId": "noabstract",
      "title": "Missing Abstract",
      "abstract": null,
      "year": 2026,
      "authors": []
    },
    {
      "paperId": "arxivonly",
      "title": "Year Only",
      "abstract": "Date falls back to the start of the year.",
      "year": 2026,
      "citationCount": 0,
      "authors": [{"name": "Grace Hopper"}],
      "externalIds": {"ArXiv": "2601.00002"}
    }
  ]
}`

func newTestSemantic(ts *httptest.Server, apiKey string) *SemanticScholar {
	s := NewSemanticScholar(types.SemanticScholarConfig{
		SourceConfig: fastSource(ts),
		APIKey:       apiKey,
		Queries:      []string{"dataset release"},
		Limit:        10,
	}, testOptions(ts))
	s.now = func() time.Time { return testNow }
	return s
}

func TestSemanticScholarFetchRecent(t *testing.T) {
	var gotKey, gotPath, gotFields, gotLimit string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotPath = r.URL.Path
		gotFields = r.URL.Query().Get("fields")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleSemanticJSON)
	}))
	defer ts.Close()

	papers, err := newTestSemantic(ts, "s2-key").FetchRecent(context.Background(), 300)
	require.NoError(t, err)

	assert.Equal(t, "s2-key", gotKey)
	assert.Equal(t, "/paper/search", gotPath)
	assert.Contains(t, gotFields, "citationCount")
	assert.Equal(t, "10", gotLimit)

	require.Len(t, papers, 2)
	p := papers[0]
	assert.Equal(t, "s2_abc123", p.ID)
	assert.Equal(t, "A curated corpus of radiology reports.", p.Abstract)
	assert.Equal(t, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), p.Published)
	assert.Equal(t, "ACL", p.Venue)
	require.NotNil(t, p.CitationCount)
	assert.Equal(t, 12, *p.CitationCount)
	assert.Equal(t, []string{"Ada Lovelace"}, p.Authors)
	assert.Equal(t, "semantic_scholar", p.Source)

	q := papers[1]
	assert.Equal(t, "s2_arxivonly", q.ID)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), q.Published)
	assert.Equal(t, "https://arxiv.org/abs/2601.00002", q.URL)
	require.NotNil(t, q.CitationCount)
	assert.Equal(t, 0, *q.CitationCount)
}

func TestSemanticScholarSearchesEveryYearInWindow(t *testing.T) {
	var mu sync.Mutex
	var yearsSeen []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		yearsSeen = append(yearsSeen, r.URL.Query().Get("year"))
		mu.Unlock()
		assert.Empty(t, r.Header.Get("x-api-key"))
		fmt.Fprint(w, `{"data": []}`)
	}))
	defer ts.Close()

	_, err := newTestSemantic(ts, "").FetchRecent(context.Background(), 400)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025", "2026"}, yearsSeen)
}

func TestSemanticScholarWindowDropsOlderPapers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleSemanticJSON)
	}))
	defer ts.Close()

	// 2026-09-30 is inside a 30-day window; January 1 is not.
	papers, err := newTestSemantic(ts, "").FetchRecent(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "s2_abc123", papers[0].ID)
}

func TestSemanticScholarHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := newTestSemantic(ts, "").FetchRecent(context.Background(), 30)
	assert.Error(t, err)
}
