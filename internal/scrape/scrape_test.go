// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-radar/pkg/types"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func testOptions(ts *httptest.Server) Options {
	return Options{Client: ts.Client(), UserAgent: "research-radar-test/0.1"}
}

// fastSource is a source config pointed at ts with no rate gate.
func fastSource(ts *httptest.Server) types.SourceConfig {
	return types.SourceConfig{
		Enabled: true,
		BaseURL: ts.URL,
		Rate:    types.RateConfig{MaxRetries: 1, InitialBackoff: time.Millisecond},
	}
}

func TestDaysSince(t *testing.T) {
	tests := []struct {
		name  string
		since time.Time
		want  int
	}{
		{"one hour ago", testNow.Add(-time.Hour), 1},
		{"exactly two days", testNow.Add(-48 * time.Hour), 3},
		{"future checkpoint", testNow.Add(time.Hour), 1},
		{"same instant", testNow, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, daysSince(testNow, tt.since))
		})
	}
}

func TestYears(t *testing.T) {
	assert.Equal(t, []int{2025, 2026}, years(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), testNow))
	assert.Equal(t, []int{2026}, years(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), testNow))
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain   text\n here ", "plain text here"},
		{"<jats:p>We release <i>MedQA</i> data.</jats:p>", "We release MedQA data."},
		{"Q&amp;A pairs", "Q&A pairs"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanText(tt.in), tt.in)
	}
}

func TestNamesUnmarshal(t *testing.T) {
	var w struct {
		A names `json:"a"`
	}
	tests := []struct {
		name string
		body string
		want names
	}{
		{"string", `{"a": "Ada"}`, names{"Ada"}},
		{"object text", `{"a": {"@pid": "1", "text": "Ada Lovelace"}}`, names{"Ada Lovelace"}},
		{"list mixed", `{"a": ["Ada", {"name": "Grace"}, {"text": "Alan"}, 3]}`, names{"Ada", "Grace", "Alan"}},
		{"null", `{"a": null}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.A = nil
			require.NoError(t, json.Unmarshal([]byte(tt.body), &w))
			assert.Equal(t, tt.want, w.A)
		})
	}
}

func TestOutcome(t *testing.T) {
	papers := []types.Paper{{ID: "x"}}

	got, err := outcome(context.Background(), papers, 3, 1, assert.AnError)
	require.NoError(t, err)
	assert.Equal(t, papers, got)

	_, err = outcome(context.Background(), nil, 2, 2, assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = outcome(ctx, papers, 1, 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromConfig(t *testing.T) {
	cfg := types.SourcesConfig{
		Arxiv:          types.ArxivConfig{SourceConfig: types.SourceConfig{Enabled: true}},
		OpenAlex:       types.OpenAlexConfig{SourceConfig: types.SourceConfig{Enabled: true}},
		PapersWithCode: types.PapersWithCodeConfig{SourceConfig: types.SourceConfig{Enabled: true}},
	}
	scrapers := FromConfig(cfg, types.HTTPConfig{Timeout: time.Second, UserAgent: "ua"}, nil)
	var got []string
	for _, s := range scrapers {
		got = append(got, s.Name())
	}
	assert.Equal(t, []string{"arxiv", "openalex", "papers_with_code"}, got)
	assert.Empty(t, FromConfig(types.SourcesConfig{}, types.HTTPConfig{}, nil))
}

func TestUserAgentHeader(t *testing.T) {
	var ua string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": {"hits": {}}}`))
	}))
	defer ts.Close()

	d := NewDBLP(types.DBLPConfig{SourceConfig: fastSource(ts), Venues: []string{"ICML"}}, testOptions(ts))
	d.now = func() time.Time { return testNow }
	_, err := d.FetchRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "research-radar-test/0.1", ua)
}
