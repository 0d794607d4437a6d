// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/research-radar/internal/checkpoint"
	"github.com/pdiddy/research-radar/internal/monitoring"
	"github.com/pdiddy/research-radar/internal/quality"
	"github.com/pdiddy/research-radar/internal/scrape"
	"github.com/pdiddy/research-radar/pkg/types"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// fakeScraper returns fixed papers. Calls are recorded for assertions.
type fakeScraper struct {
	name   string
	papers []types.Paper
	err    error

	mu        sync.Mutex
	lookbacks []int
	sinces    []time.Time
}

func (f *fakeScraper) Name() string { return f.name }

func (f *fakeScraper) FetchRecent(_ context.Context, days int) ([]types.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookbacks = append(f.lookbacks, days)
	return f.papers, f.err
}

func (f *fakeScraper) FetchSince(_ context.Context, since time.Time) ([]types.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinces = append(f.sinces, since)
	return f.papers, f.err
}

// fakeExtractor gives every paper a single demand score looked up by ID.
type fakeExtractor map[string]float64

func (f fakeExtractor) Extract(p types.Paper) types.Signals {
	return types.Signals{types.CategoryDemand: {Score: f[p.ID]}}
}

// fakeEvaluator returns the assessment registered for a paper ID, or nil.
type fakeEvaluator struct {
	byID  map[string]*types.Assessment
	calls []string
}

func (f *fakeEvaluator) Evaluate(_ context.Context, p types.Paper, _ types.Signals) *types.Assessment {
	f.calls = append(f.calls, p.ID)
	a, ok := f.byID[p.ID]
	if !ok {
		return nil
	}
	a.Paper = p
	return a
}

type fakeWriter struct {
	written []*types.Assessment
	failFor map[string]bool
}

func (f *fakeWriter) WriteFinding(a *types.Assessment) (string, error) {
	if f.failFor[a.ID] {
		return "", errors.New("disk full")
	}
	f.written = append(f.written, a)
	return "findings/tier_" + a.Tier + "/" + a.ID + ".md", nil
}

func paper(id, source string, citations *int, published time.Time) types.Paper {
	return types.Paper{
		ID:            id,
		Title:         "Paper " + id,
		Abstract:      "Abstract for " + id,
		Source:        source,
		Published:     published,
		CitationCount: citations,
	}
}

func testConfig() types.Config {
	return types.Config{
		QualityFilter: types.QualityFilterConfig{
			Enabled:              true,
			MinCitationsAbsolute: 5,
			Thresholds:           types.CitationThresholds{UnderOneYear: 3, OneToTwoYears: 10, TwoToFiveYears: 20, OverFiveYears: 30},
			UncitedSources:       []string{"arxiv"},
		},
		Thresholds: types.ThresholdsConfig{MinSignal: 5.0, ValueScoreMinimum: 6.0},
	}
}

func newTestProcessor(deps Deps) *Processor {
	p := NewProcessor(deps, testConfig())
	p.now = func() time.Time { return testNow }
	return p
}

func TestDeduplicate(t *testing.T) {
	day := testNow.Add(-24 * time.Hour)
	first := paper("arxiv_1", "arxiv", nil, day)
	dup := first
	dup.Title = "later copy"
	in := []types.Paper{first, paper("s2_2", "semantic_scholar", nil, day), dup, paper("arxiv_3", "arxiv", nil, day)}

	got := Deduplicate(in)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"arxiv_1", "s2_2", "arxiv_3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "Paper arxiv_1", got[0].Title, "first occurrence survives")

	assert.Empty(t, Deduplicate(nil))
}

func TestRunBatch(t *testing.T) {
	recent := testNow.Add(-30 * 24 * time.Hour)

	arxiv := &fakeScraper{name: "arxiv", papers: []types.Paper{
		paper("arxiv_strong", "arxiv", nil, recent),
		paper("arxiv_weak", "arxiv", nil, recent),
		paper("arxiv_fails", "arxiv", nil, recent),
		paper("arxiv_capped", "arxiv", nil, recent),
		paper("arxiv_low", "arxiv", nil, recent),
	}}
	s2 := &fakeScraper{name: "semantic_scholar", papers: []types.Paper{
		paper("s2_uncited", "semantic_scholar", types.IntPtr(1), recent),
		paper("arxiv_strong", "arxiv", nil, recent),
	}}
	dblp := &fakeScraper{name: "dblp", err: errors.New("all 3 requests failed")}

	extractor := fakeExtractor{
		"arxiv_strong": 8, "arxiv_weak": 3, "arxiv_fails": 7, "arxiv_capped": 7, "arxiv_low": 9,
	}
	evaluator := &fakeEvaluator{byID: map[string]*types.Assessment{
		"arxiv_strong": {ID: "a1", Tier: "A", ValueScore: 8.2},
		"arxiv_capped": {ID: "a2", Tier: "B", ValueScore: 9.0, Blockers: []types.Blocker{
			{Category: types.BlockerTechnical, Severity: types.SeverityHigh},
		}},
		"arxiv_low": {ID: "a3", Tier: "C", ValueScore: 5.0},
	}}
	writer := &fakeWriter{}
	reg := prometheus.NewRegistry()

	p := newTestProcessor(Deps{
		Scrapers:  []scrape.Scraper{arxiv, s2, dblp},
		Extractor: extractor,
		Evaluator: evaluator,
		Writer:    writer,
		Metrics:   monitoring.NewRecorder(reg),
	})

	sum, err := p.RunBatch(context.Background(), 90)
	require.NoError(t, err)

	assert.Equal(t, []int{90}, arxiv.lookbacks)
	assert.Equal(t, ModeBatch, sum.Mode)
	assert.Equal(t, 7, sum.Fetched)
	assert.Equal(t, 6, sum.Unique)
	assert.Equal(t, 5, sum.Passed)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, []quality.ReasonCount{{Reason: "Below absolute minimum", Count: 1}}, sum.RejectReasons)
	assert.Equal(t, 1, sum.WeakSignals)
	assert.Equal(t, 3, sum.Evaluated)
	assert.Equal(t, 1, sum.EvaluationFailures)
	assert.Equal(t, 1, sum.BelowThreshold)
	assert.Equal(t, map[string]int{"A": 1, "B": 1}, sum.Findings)
	assert.Equal(t, 2, sum.TotalFindings())
	assert.Contains(t, sum.ScraperErrors, "dblp")
	assert.Equal(t, recent, sum.LatestPublished)

	assert.NotContains(t, evaluator.calls, "arxiv_weak", "weak papers are never evaluated")
	assert.NotContains(t, evaluator.calls, "s2_uncited", "rejected papers are never evaluated")
	require.Len(t, writer.written, 2)
	assert.Equal(t, "a1", writer.written[0].ID)
	assert.Equal(t, 6.0, writer.written[1].EffectiveValueScore(), "a capped score at the minimum is still written")

	n, err := testutil.GatherAndCount(reg, "research_radar_findings_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = testutil.GatherAndCount(reg, "research_radar_scraper_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunBatchNoSources(t *testing.T) {
	p := newTestProcessor(Deps{})
	_, err := p.RunBatch(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestRunBatchWriteFailureContinues(t *testing.T) {
	recent := testNow.Add(-time.Hour)
	src := &fakeScraper{name: "arxiv", papers: []types.Paper{
		paper("arxiv_1", "arxiv", nil, recent),
		paper("arxiv_2", "arxiv", nil, recent),
	}}
	writer := &fakeWriter{failFor: map[string]bool{"a1": true}}
	core, logs := observer.New(zap.WarnLevel)

	p := newTestProcessor(Deps{
		Scrapers:  []scrape.Scraper{src},
		Extractor: fakeExtractor{"arxiv_1": 9, "arxiv_2": 9},
		Evaluator: &fakeEvaluator{byID: map[string]*types.Assessment{
			"arxiv_1": {ID: "a1", Tier: "S", ValueScore: 9.5},
			"arxiv_2": {ID: "a2", Tier: "S", ValueScore: 9.5},
		}},
		Writer: writer,
		Logger: zap.New(core),
	})

	sum, err := p.RunBatch(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.WriteFailures)
	assert.Equal(t, map[string]int{"S": 1}, sum.Findings)
	require.Len(t, writer.written, 1)
	assert.Equal(t, "a2", writer.written[0].ID)

	entries := logs.FilterMessage("writing finding failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "arxiv_1", entries[0].ContextMap()["paper_id"])
}

func TestRunSinceDropsPapersBeforeCheckpoint(t *testing.T) {
	since := testNow.Add(-6 * time.Hour)
	src := &fakeScraper{name: "arxiv", papers: []types.Paper{
		paper("arxiv_old", "arxiv", nil, since.Add(-time.Hour)),
		paper("arxiv_edge", "arxiv", nil, since),
		paper("arxiv_new", "arxiv", nil, since.Add(time.Hour)),
	}}
	evaluator := &fakeEvaluator{byID: map[string]*types.Assessment{}}

	p := newTestProcessor(Deps{
		Scrapers:  []scrape.Scraper{src},
		Extractor: fakeExtractor{"arxiv_old": 9, "arxiv_edge": 9, "arxiv_new": 9},
		Evaluator: evaluator,
		Writer:    &fakeWriter{},
	})

	sum, err := p.RunSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{since}, src.sinces)
	assert.Equal(t, ModeMonitor, sum.Mode)
	assert.Equal(t, 1, sum.Fetched)
	assert.Equal(t, []string{"arxiv_new"}, evaluator.calls)
	assert.Equal(t, since.Add(time.Hour), sum.LatestPublished)
}

func TestPublishedSince(t *testing.T) {
	since := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		published time.Time
		want      bool
	}{
		{"timestamp after", since.Add(time.Minute), true},
		{"timestamp equal", since, false},
		{"timestamp earlier same day", time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC), false},
		{"date on checkpoint day", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), true},
		{"date after checkpoint day", time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), true},
		{"date before checkpoint day", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), false},
		{"year of checkpoint", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"earlier year", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"non-UTC timestamp", time.Date(2026, 10, 19, 12, 0, 0, 0, time.FixedZone("EST", -5*3600)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publishedSince(tt.published, since))
		})
	}
}

func TestRunSinceKeepsDateOnlyPapersOnce(t *testing.T) {
	since := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	s2 := &fakeScraper{name: "semantic_scholar", papers: []types.Paper{
		paper("s2_new", "semantic_scholar", types.IntPtr(10), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)),
		paper("s2_old", "semantic_scholar", types.IntPtr(10), time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)),
	}}
	dblp := &fakeScraper{name: "dblp", papers: []types.Paper{
		paper("dblp_new", "dblp", types.IntPtr(10), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	}}
	evaluator := &fakeEvaluator{byID: map[string]*types.Assessment{}}
	store := checkpoint.NewMemory()

	p := newTestProcessor(Deps{
		Scrapers:  []scrape.Scraper{s2, dblp},
		Extractor: fakeExtractor{"s2_new": 9, "s2_old": 9, "dblp_new": 9},
		Evaluator: evaluator,
		Writer:    &fakeWriter{},
		Seen:      store,
	})

	sum, err := p.RunSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Fetched)
	assert.Zero(t, sum.AlreadySeen)
	assert.Equal(t, []string{"s2_new", "dblp_new"}, evaluator.calls)

	seen, err := store.Seen(context.Background(), []string{"s2_new", "dblp_new", "s2_old"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"s2_new": true, "dblp_new": true}, seen)

	sum, err = p.RunSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Fetched)
	assert.Equal(t, 2, sum.AlreadySeen)
	assert.Zero(t, sum.Unique)
	assert.Len(t, evaluator.calls, 2, "second poll must not re-evaluate")
}

type brokenSeenStore struct{}

func (brokenSeenStore) Seen(context.Context, []string) (map[string]bool, error) {
	return nil, errors.New("database is locked")
}

func (brokenSeenStore) MarkSeen(context.Context, []types.Paper) error { return nil }

func TestRunSinceSeenStoreError(t *testing.T) {
	since := testNow.Add(-time.Hour)
	evaluator := &fakeEvaluator{byID: map[string]*types.Assessment{}}
	p := newTestProcessor(Deps{
		Scrapers: []scrape.Scraper{&fakeScraper{name: "arxiv", papers: []types.Paper{
			paper("arxiv_new", "arxiv", nil, testNow),
		}}},
		Extractor: fakeExtractor{"arxiv_new": 9},
		Evaluator: evaluator,
		Writer:    &fakeWriter{},
		Seen:      brokenSeenStore{},
	})

	sum, err := p.RunSince(context.Background(), since)
	require.ErrorContains(t, err, "database is locked")
	assert.Equal(t, 1, sum.Fetched)
	assert.Empty(t, evaluator.calls)
}

func TestRunBatchIgnoresSeenStore(t *testing.T) {
	store := checkpoint.NewMemory()
	recent := testNow.Add(-time.Hour)
	require.NoError(t, store.MarkSeen(context.Background(), []types.Paper{paper("arxiv_1", "arxiv", nil, recent)}))
	evaluator := &fakeEvaluator{byID: map[string]*types.Assessment{}}

	p := newTestProcessor(Deps{
		Scrapers:  []scrape.Scraper{&fakeScraper{name: "arxiv", papers: []types.Paper{paper("arxiv_1", "arxiv", nil, recent)}}},
		Extractor: fakeExtractor{"arxiv_1": 9},
		Evaluator: evaluator,
		Writer:    &fakeWriter{},
		Seen:      store,
	})

	_, err := p.RunBatch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"arxiv_1"}, evaluator.calls)
}

func TestProcessStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	evaluator := &cancellingEvaluator{cancel: cancel}

	p := newTestProcessor(Deps{
		Extractor: fakeExtractor{"arxiv_1": 9, "arxiv_2": 9},
		Evaluator: evaluator,
		Writer:    &fakeWriter{},
	})

	recent := testNow.Add(-time.Hour)
	_, err := p.Process(ctx, []types.Paper{
		paper("arxiv_1", "arxiv", nil, recent),
		paper("arxiv_2", "arxiv", nil, recent),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, evaluator.calls)
}

// cancellingEvaluator cancels the run during its first call.
type cancellingEvaluator struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingEvaluator) Evaluate(context.Context, types.Paper, types.Signals) *types.Assessment {
	c.calls++
	c.cancel()
	return nil
}

func TestQualityFilterDisabledPassesEverything(t *testing.T) {
	cfg := testConfig()
	cfg.QualityFilter.Enabled = false
	evaluator := &fakeEvaluator{byID: map[string]*types.Assessment{}}
	p := NewProcessor(Deps{
		Extractor: fakeExtractor{"s2_1": 9},
		Evaluator: evaluator,
		Writer:    &fakeWriter{},
	}, cfg)

	sum, err := p.Process(context.Background(), []types.Paper{
		paper("s2_1", "semantic_scholar", types.IntPtr(0), testNow.Add(-time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, []string{"s2_1"}, evaluator.calls)
}
