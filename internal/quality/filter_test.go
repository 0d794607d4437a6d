// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-radar/pkg/types"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func defaultConfig() types.QualityFilterConfig {
	return types.QualityFilterConfig{
		Enabled:              true,
		MinCitationsAbsolute: 5,
		Thresholds: types.CitationThresholds{
			UnderOneYear:   3,
			OneToTwoYears:  10,
			TwoToFiveYears: 20,
			OverFiveYears:  30,
		},
		UncitedSources: []string{"arxiv"},
	}
}

func paper(source string, ageDays int, citations *int) types.Paper {
	return types.Paper{
		ID:            source + "_1",
		Source:        source,
		Published:     now.AddDate(0, 0, -ageDays),
		CitationCount: citations,
	}
}

func TestPasses(t *testing.T) {
	tests := []struct {
		name       string
		paper      types.Paper
		mutate     func(*types.QualityFilterConfig)
		wantPass   bool
		wantReason string
	}{
		{
			name:       "disabled passes everything",
			paper:      paper("semantic_scholar", 10, types.IntPtr(0)),
			mutate:     func(c *types.QualityFilterConfig) { c.Enabled = false },
			wantPass:   true,
			wantReason: "Quality filtering disabled",
		},
		{
			name:       "recent arxiv paper with unknown citations",
			paper:      paper("arxiv", 90, nil),
			wantPass:   true,
			wantReason: "arxiv paper accepted",
		},
		{
			name:       "unknown citations rejected for other sources",
			paper:      paper("semantic_scholar", 90, nil),
			wantPass:   false,
			wantReason: "Citation count unavailable",
		},
		{
			name:       "unknown citations allowed by config",
			paper:      paper("dblp", 90, nil),
			mutate:     func(c *types.QualityFilterConfig) { c.AllowUnknownCitations = true },
			wantPass:   true,
			wantReason: "Unknown citation count allowed",
		},
		{
			name:       "below absolute floor",
			paper:      paper("openalex", 30, types.IntPtr(4)),
			wantPass:   false,
			wantReason: "Below absolute minimum (4 < 5)",
		},
		{
			name:       "young paper meets first band",
			paper:      paper("openalex", 200, types.IntPtr(5)),
			wantPass:   true,
			wantReason: "Passes citation threshold (5 >= 3",
		},
		{
			name:       "second band rejection",
			paper:      paper("openalex", 500, types.IntPtr(8)),
			wantPass:   false,
			wantReason: "Below age-adjusted threshold (8 < 10",
		},
		{
			name:       "third band pass",
			paper:      paper("openalex", 3*365, types.IntPtr(20)),
			wantPass:   true,
			wantReason: "Passes citation threshold (20 >= 20",
		},
		{
			name:       "old paper needs thirty",
			paper:      paper("openalex", 6*365, types.IntPtr(29)),
			wantPass:   false,
			wantReason: "Below age-adjusted threshold (29 < 30",
		},
		{
			name:       "band override",
			paper:      paper("openalex", 6*365, types.IntPtr(29)),
			mutate:     func(c *types.QualityFilterConfig) { c.Thresholds.OverFiveYears = 25 },
			wantPass:   true,
			wantReason: "Passes citation threshold (29 >= 25",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			ok, reason := Passes(tt.paper, cfg, now)
			assert.Equal(t, tt.wantPass, ok)
			assert.True(t, strings.HasPrefix(reason, tt.wantReason), "reason %q", reason)
		})
	}
}

func TestRequiredCitations(t *testing.T) {
	th := defaultConfig().Thresholds
	assert.Equal(t, 3, RequiredCitations(0, th))
	assert.Equal(t, 3, RequiredCitations(0.99, th))
	assert.Equal(t, 10, RequiredCitations(1, th))
	assert.Equal(t, 20, RequiredCitations(2, th))
	assert.Equal(t, 20, RequiredCitations(4.9, th))
	assert.Equal(t, 30, RequiredCitations(5, th))
}

func TestAgeYears(t *testing.T) {
	assert.InDelta(t, 1.0, AgeYears(now.Add(-time.Duration(365.25*24)*time.Hour), now), 0.01)
	assert.Zero(t, AgeYears(now.Add(-23*time.Hour), now))
}

func TestFilterPapersPartitionsInOrder(t *testing.T) {
	papers := []types.Paper{
		paper("arxiv", 10, nil),
		paper("openalex", 10, types.IntPtr(1)),
		paper("openalex", 10, types.IntPtr(50)),
		paper("semantic_scholar", 10, nil),
	}
	papers[2].ID = "openalex_2"

	passed, rejected := FilterPapers(papers, defaultConfig(), now)
	require.Len(t, passed, 2)
	assert.Equal(t, "arxiv_1", passed[0].ID)
	assert.Equal(t, "openalex_2", passed[1].ID)
	require.Len(t, rejected, 2)
	assert.Equal(t, "openalex_1", rejected[0].Paper.ID)
	assert.Equal(t, "semantic_scholar_1", rejected[1].Paper.ID)

	passed2, rejected2 := FilterPapers(papers, defaultConfig(), now)
	assert.Equal(t, passed, passed2)
	assert.Equal(t, rejected, rejected2)
}

func TestReasonHistogram(t *testing.T) {
	rejected := []Rejection{
		{Reason: "Below absolute minimum (1 < 5)"},
		{Reason: "Citation count unavailable"},
		{Reason: "Below absolute minimum (2 < 5)"},
		{Reason: "Below age-adjusted threshold (8 < 10 for 1.5yr paper)"},
	}
	got := ReasonHistogram(rejected)
	assert.Equal(t, []ReasonCount{
		{Reason: "Below absolute minimum", Count: 2},
		{Reason: "Below age-adjusted threshold", Count: 1},
		{Reason: "Citation count unavailable", Count: 1},
	}, got)
}

func TestReasonType(t *testing.T) {
	assert.Equal(t, "Below absolute minimum", ReasonType("Below absolute minimum (1 < 5)"))
	assert.Equal(t, "Citation count unavailable", ReasonType("Citation count unavailable"))
}
